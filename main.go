package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/viper"

	"github.com/peergram/go-suggest/server"
	"github.com/peergram/go-suggest/service/logger"
)

func main() {
	server.Init()

	port := viper.GetInt("PORT")
	logger.For(nil).Infof("listening on :%d", port)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil); err != nil {
		logger.For(nil).WithError(err).Fatal("server exited")
	}
}
