package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func (c *client) run(method, path string, payload any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}
	status, respBody, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return fmt.Errorf("request failed: status=%d body=%s", status, string(respBody))
	}
	c.print(status, respBody)
	return nil
}

func main() {
	var (
		baseURL = envOr("ASHPAW_URL", "http://localhost:8080")
		out     = envOr("ASHPAW_OUT", "json")
	)

	root := &cobra.Command{
		Use:   "ashpawctl",
		Short: "Admin CLI for the Ashpaw 2FA service",
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "Base URL of the service (env ASHPAW_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "Output format: json|text")

	cl := &client{BaseURL: baseURL, OutFormat: out, HTTP: &http.Client{Timeout: 30 * time.Second}}
	cobra.OnInitialize(func() {
		cl.BaseURL = baseURL
		cl.OutFormat = out
	})

	// apps
	appsCmd := &cobra.Command{Use: "apps", Short: "Manage registered applications"}

	var createName, createDesc, createCallback string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new application",
		RunE: func(cmd *cobra.Command, args []string) error {
			if createName == "" {
				return fmt.Errorf("--name is required")
			}
			payload := map[string]any{"name": createName}
			if createDesc != "" {
				payload["description"] = createDesc
			}
			if createCallback != "" {
				payload["callback_url"] = createCallback
			}
			return cl.run("POST", "/apps", payload)
		},
	}
	createCmd.Flags().StringVar(&createName, "name", "", "Application name")
	createCmd.Flags().StringVar(&createDesc, "description", "", "Application description")
	createCmd.Flags().StringVar(&createCallback, "callback-url", "", "Redirect target after successful verification")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.run("GET", "/apps", nil)
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <app_id>",
		Short: "Show one application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.run("GET", "/apps/"+args[0], nil)
		},
	}

	var updName, updDesc, updCallback string
	updateCmd := &cobra.Command{
		Use:   "update <app_id>",
		Short: "Update an application (only provided fields change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{}
			if cmd.Flags().Changed("name") {
				payload["name"] = updName
			}
			if cmd.Flags().Changed("description") {
				payload["description"] = updDesc
			}
			if cmd.Flags().Changed("callback-url") {
				payload["callback_url"] = updCallback
			}
			if len(payload) == 0 {
				return fmt.Errorf("nothing to update; pass --name, --description or --callback-url")
			}
			return cl.run("PUT", "/apps/"+args[0], payload)
		},
	}
	updateCmd.Flags().StringVar(&updName, "name", "", "New name")
	updateCmd.Flags().StringVar(&updDesc, "description", "", "New description")
	updateCmd.Flags().StringVar(&updCallback, "callback-url", "", "New callback URL")

	appsCmd.AddCommand(createCmd, listCmd, getCmd, updateCmd)

	// users
	usersCmd := &cobra.Command{Use: "users", Short: "Manage per-app user enrollment"}

	usersListCmd := &cobra.Command{
		Use:   "list <app_id>",
		Short: "List enrolled users of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.run("GET", "/apps/"+args[0]+"/users", nil)
		},
	}

	usersResetCmd := &cobra.Command{
		Use:   "reset <app_id> <user_id>",
		Short: "Reset a user's 2FA enrollment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.run("DELETE", "/apps/"+args[0]+"/users/"+args[1], nil)
		},
	}

	usersCmd.AddCommand(usersListCmd, usersResetCmd)

	// token
	tokenCmd := &cobra.Command{Use: "token", Short: "Exchange token operations"}

	tokenValidateCmd := &cobra.Command{
		Use:   "validate <token>",
		Short: "Redeem an exchange token (single use)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.run("POST", "/auth/validate-token", map[string]string{"token": args[0]})
		},
	}

	tokenCmd.AddCommand(tokenValidateCmd)

	root.AddCommand(appsCmd, usersCmd, tokenCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
