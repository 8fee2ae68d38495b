// @title ASDM grant management API
// @version 1.0
// @description Grant requests, documents, payments, reports and notifications of the ASDM.
// @BasePath /
// @securityDefinitions.apikey SessionID
// @in header
// @name X-Session-ID
package main

import (
	"github.com/sirupsen/logrus"

	_ "asdm/docs"
	"asdm/internal/api"
)

func main() {
	logrus.Info("App start")
	if err := api.StartServer(); err != nil {
		logrus.Fatal(err)
	}
	logrus.Info("App terminated")
}
