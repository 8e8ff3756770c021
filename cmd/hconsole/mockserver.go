package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/hconsole/internal/mockserver"
	"pkt.systems/hconsole/internal/transport"
	"pkt.systems/hconsole/schema"
	"pkt.systems/pslog"
)

func newMockServerCmd() *cobra.Command {
	var (
		addr    string
		login   bool
		users   []string
		rows    int
		path    string
		name    string
		cluster string
	)
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve a local console endpoint for trying the client",
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := parseUsers(users)
			if err != nil {
				return err
			}
			if login && len(accounts) == 0 {
				accounts = map[string]string{"admin": "admin"}
			}
			srv := mockserver.New(mockserver.Options{
				Metadata: schema.ServerMetadata{ServerName: name, ClusterName: cluster},
				Users:    accounts,
				Rows:     rows,
				Path:     path,
				Logger:   pslog.Ctx(cmd.Context()),
			})
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "mock server on %s%s\n", addr, path)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":5900", "listen address")
	cmd.Flags().BoolVar(&login, "login", false, "require login (admin/admin unless --user is given)")
	cmd.Flags().StringSliceVar(&users, "user", nil, "account as name:password, repeatable")
	cmd.Flags().IntVar(&rows, "rows", mockserver.DefaultRows, "rows returned by every query")
	cmd.Flags().StringVar(&path, "path", transport.DefaultPath, "websocket path")
	cmd.Flags().StringVar(&name, "name", "", "advertised server name")
	cmd.Flags().StringVar(&cluster, "cluster", "", "advertised cluster name")
	return cmd
}

func parseUsers(accounts []string) (map[string]string, error) {
	if len(accounts) == 0 {
		return nil, nil
	}
	users := make(map[string]string, len(accounts))
	for _, account := range accounts {
		name, password, ok := strings.Cut(account, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --user %q; expected name:password", account)
		}
		users[name] = password
	}
	return users, nil
}
