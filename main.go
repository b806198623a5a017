package main

import (
	"log"
	"os"

	"github.com/getsentry/sentry-go"

	"molt/logger"
	"molt/server"
	"molt/server/migrations/manifest"
	"molt/utils"
)

type OptsDesc struct {
	prmsCnt int
	handler func(p []string) error
}

func init() {
	logger.SetOut(os.Stdout)
	logger.SetLevel("debug")
	log.Printf("The logger is initialized: level: '%s', output: '%s'.\n", "debug", "stdout")

	appConfig := utils.GetConfig()
	if len(appConfig.SentryDsn) > 0 {
		sentry.Init(sentry.ClientOptions{Dsn: appConfig.SentryDsn})
	}
}

//Main function runs the Molt migration server. The following options are avaliable:
// -a - address to use. Default value is empty.
// -p - port to use. Default value is 8000.
// -r - path root to use. Default value is "/molt".
// -m - path to the migration manifest to preload the registry from.
func main() {
	//instantiate Server with default configuration
	var srv = server.New("", "8000", "/molt")

	//apply command-line-specified options if there are some
	var opts = map[string]OptsDesc{
		"-a": {1, func(p []string) error {
			srv.SetAddr(p[0])
			return nil
		}},
		"-p": {1, func(p []string) error {
			srv.SetPort(p[0])
			return nil
		}},
		"-r": {1, func(p []string) error {
			srv.SetRoot(p[0])
			return nil
		}},
		"-m": {1, func(p []string) error {
			registry, err := manifest.Load(p[0], nil)
			if err != nil {
				return err
			}
			srv.SetRegistry(registry)
			return nil
		}},
	}

	args := os.Args[1:]
	for len(args) > 0 {
		if v, e := opts[args[0]]; e && len(args)-1 >= v.prmsCnt {
			if err := v.handler(args[1 : v.prmsCnt+1]); err != nil {
				log.Fatalln(err)
				os.Exit(127)
			}
			args = args[1+v.prmsCnt:]
		} else {
			log.Fatalf("Wrong argument '%s'", args[0])
			os.Exit(127)
		}
	}

	//get AppConfig
	appConfig := utils.GetConfig()
	log.Println("Molt server started.")
	srv.Setup(appConfig).ListenAndServe()
}
