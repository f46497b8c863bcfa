package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"driver-link/internal/cli"
)

func main() {
	var (
		subject = flag.String("subject", "", "Token subject (driver id or operator name)")
		role    = flag.String("role", "DRIVER", "Role: DRIVER | OPERATOR")
		secret  = flag.String("secret", "", "JWT HMAC secret (HS256)")
		ttl     = flag.Duration("ttl", 12*time.Hour, "Token lifetime")
	)
	flag.Parse()

	if *subject == "" || *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: key --subject=<id> --role=DRIVER|OPERATOR --secret='<secret>' [--ttl=12h]")
		os.Exit(2)
	}

	token, claims, err := cli.GenerateToken(*secret, *subject, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Print(cli.PrintToken(token, claims))
}
