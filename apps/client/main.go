// Command client keeps the session of one device in a local file.
package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/session"
	logsvc "github.com/trezcool/schoolconnect/services/logger"
	"github.com/trezcool/schoolconnect/storage/kv"
)

func main() {
	stdLogger := log.New(os.Stderr, "CLIENT : ", log.LstdFlags)
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(stdLogger, conf)

	path, err := kv.DefaultFilePath(conf.AppName)
	if err != nil {
		stdLogger.Fatal(err)
	}

	var hash []byte
	if conf.DemoPasswordHash != "" {
		hash = []byte(conf.DemoPasswordHash)
	}
	store := session.NewStore(kv.NewFile(path), logger)
	cli := commandLine{
		store: store,
		auth:  session.NewAuthenticator(session.DemoDirectory(hash), store),
		out:   os.Stdout,
	}
	if err := cli.run(context.Background(), os.Args); err != nil {
		if err != errHelp {
			stdLogger.Printf("error: %s\n", err)
		}
		os.Exit(1)
	}
}
