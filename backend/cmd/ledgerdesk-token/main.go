// Command ledgerdesk-token mints a bearer token for local development,
// signed with the jwt_key from the config folder.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ledgerdesk/ledgerdesk/shared/config"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	"github.com/ledgerdesk/ledgerdesk/shared/jwt"
)

func main() {
	var (
		configFolder string
		userId       int64
		email        string
	)
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.Int64Var(&userId, "uid", 0, "user id to put in the token")
	flag.StringVar(&email, "email", "", "optional email claim")
	flag.Parse()

	if userId <= 0 {
		fmt.Fprintln(os.Stderr, "-uid is required")
		os.Exit(2)
	}

	cfg := config.MustLoad(configFolder)
	token, err := jwt.New(cfg.JwtKey(), cfg.JwtTTL()).NewToken(domain.User{Id: userId, Email: email})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
