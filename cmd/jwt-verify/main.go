// Command jwt-verify checks hub login tokens against the configured trust
// anchor and can serve the hub login endpoints.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hubauth/jwtauthenticator/config"
)

func main() {
	if err := newRootCmd(config.New).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
