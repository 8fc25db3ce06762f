package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// CreateBook godoc
//
//	@Summary	Create a new book
//	@Tags		Libros
//	@Accept		json
//	@Produce	json
//	@Param		libro	body		Book	true	"Book to create. The id field is ignored."
//	@Success	201		{object}	Book
//	@Failure	400		{object}	APIError
//	@Failure	500		{object}	APIError
//	@Router		/libro [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	payload, err := DecodeBookRequestBody(r)
	if err != nil {
		api.badRequest(w, r, "failed to create the book", err)
		return
	}

	in, err := ValidateCreateBookPayload(payload)
	if err != nil {
		api.badRequest(w, r, "failed to create the book", err)
		return
	}

	book, err := api.bookService.Create(r.Context(), in)
	if err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, "failed to create the book", nil)
		return
	}
	api.logger.Info("success to create book", zap.Int64("book.id", book.ID), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusCreated, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetAllBooks godoc
//
//	@Summary	List all books
//	@Tags		Libros
//	@Produce	json
//	@Success	200	{array}		Book
//	@Failure	500	{object}	APIError
//	@Router		/libro [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	books, err := api.bookService.List(r.Context())
	if err != nil {
		api.logger.Error("failed to get all books", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, "failed to get all books", nil)
		return
	}
	api.logger.Info("success to get all books", zap.Int("books.total", len(books)), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusOK, books); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetOneBook godoc
//
//	@Summary	Get a book by id
//	@Tags		Libros
//	@Produce	json
//	@Param		id	path		int	true	"Book id"
//	@Success	200	{object}	Book
//	@Failure	400	{object}	APIError
//	@Failure	404	{object}	APIError
//	@Failure	500	{object}	APIError
//	@Router		/libro/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		api.badRequest(w, r, "book id provided is not valid", err)
		return
	}

	book, err := api.bookService.GetOne(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		api.logger.Info("book does not exist", zap.Int64("book.id", id), zap.String("request.id", requestID))
		api.sendError(w, r, http.StatusNotFound, "book does not exist", nil)
		return
	}
	if err != nil {
		api.logger.Error("failed to get book", zap.Int64("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, "failed to get the book", nil)
		return
	}
	api.logger.Info("success to get book", zap.Int64("book.id", id), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusOK, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// UpdateBook godoc
//
//	@Summary	Replace all fields of a book
//	@Tags		Libros
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int		true	"Book id"
//	@Param		libro	body		Book	true	"New book content. The id field is optional and must match the path."
//	@Success	200		{object}	Book
//	@Failure	400		{object}	APIError
//	@Failure	404		{object}	APIError
//	@Failure	500		{object}	APIError
//	@Router		/libro/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		api.badRequest(w, r, "book id provided is not valid", err)
		return
	}

	payload, err := DecodeBookRequestBody(r)
	if err != nil {
		api.badRequest(w, r, "failed to update the book", err)
		return
	}

	in, err := ValidateUpdateBookPayload(payload, id)
	if err != nil {
		api.badRequest(w, r, "failed to update the book", err)
		return
	}

	book, err := api.bookService.Update(r.Context(), id, in)
	if errors.Is(err, ErrBookNotFound) {
		api.logger.Info("book does not exist", zap.Int64("book.id", id), zap.String("request.id", requestID))
		api.sendError(w, r, http.StatusNotFound, "book does not exist", nil)
		return
	}
	if err != nil {
		api.logger.Error("failed to update book", zap.Int64("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, "failed to update the book", nil)
		return
	}
	api.logger.Info("success to update book", zap.Int64("book.id", id), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusOK, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteOneBook godoc
//
//	@Summary	Delete a book by id
//	@Tags		Libros
//	@Produce	json
//	@Param		id	path		int	true	"Book id"
//	@Success	200	{object}	APIResponse
//	@Failure	400	{object}	APIError
//	@Failure	404	{object}	APIError
//	@Failure	500	{object}	APIError
//	@Router		/libro/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		api.badRequest(w, r, "book id provided is not valid", err)
		return
	}

	err = api.bookService.Delete(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		api.logger.Info("book does not exist", zap.Int64("book.id", id), zap.String("request.id", requestID))
		api.sendError(w, r, http.StatusNotFound, "book does not exist", nil)
		return
	}
	if err != nil {
		api.logger.Error("failed to delete book", zap.Int64("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, "failed to delete the book", nil)
		return
	}
	api.logger.Info("success to delete book", zap.Int64("book.id", id), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Book deleted successfully.", map[string]int64{"id": id})
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// badRequest answers with 400. Validation errors list every faulty field,
// any other error (like an unreadable body) is only logged.
func (api *APIHandler) badRequest(w http.ResponseWriter, r *http.Request, message string, err error) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	api.logger.Info(message, zap.String("request.id", requestID), zap.Error(err))

	var data interface{}
	var ve *ValidationError
	var me missingFieldError
	var ie invalidFieldError
	switch {
	case errors.As(err, &ve):
		data = ve.Messages()
	case errors.As(err, &me):
		data = []string{me.Error()}
	case errors.As(err, &ie):
		data = []string{ie.Error()}
	}
	api.sendError(w, r, http.StatusBadRequest, message, data)
}

func (api *APIHandler) sendError(w http.ResponseWriter, r *http.Request, status int, message string, data interface{}) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	errResp := NewAPIError(requestID, status, message, data)
	if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
		api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
	}
}
