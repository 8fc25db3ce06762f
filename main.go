package main

import (
	"log"
)

var (
	GitCommit string
	GitTag    string
	BuildTime string
)

//	@title			API Libros
//	@version		1.0.0
//	@description	CRUD api over the libros table.
//	@contact.name	Soporte
//	@contact.url	https://soporte.ejemplo.com
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//	@BasePath		/
func main() {
	app, err := NewApp(DefaultConfigFile, DefaultEnvFile)
	if err != nil {
		log.Fatal("application failed to initialized: ", err)
	}
	err = app.Run()
	if err != nil {
		log.Fatal("application exited. check logs for more details. ", err)
	}
}
