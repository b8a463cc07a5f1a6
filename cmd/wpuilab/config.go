/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wpuilab/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the user configuration",
	}
	cmd.AddCommand(newConfigShowCmd(a), newConfigSetRemoteCmd(a), newConfigForgetCmd())
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			path, err := config.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "# file:", path)
			for _, key := range []string{"editor.history_limit", "editor.registry_file", "storage.backups_keep", "remote.dsn", "remote.timeout_ms", "logging.level", "logging.format", "logging.source", "logging.file"} {
				if env, ok := config.EnvOverrideFor(key); ok {
					fmt.Fprintf(out, "# %s overridden by %s\n", key, env)
				}
			}
			if a.secret != "" {
				fmt.Fprintln(out, "# remote password: stored in keychain")
			}
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigSetRemoteCmd(a *app) *cobra.Command {
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "set-remote <dsn>",
		Short: "Store the remote Postgres DSN, and optionally its password in the keychain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var secret string
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				secret = strings.TrimRight(line, "\r\n")
			}
			cfg := a.cfg
			cfg.Remote.DSN = strings.TrimSpace(args[0])
			if err := config.Save(cfg, secret); err != nil {
				return err
			}
			a.cfg = cfg
			fmt.Fprintln(cmd.OutOrStdout(), "Remote saved")
			return nil
		},
	}
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the database password from stdin")
	return cmd
}

func newConfigForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget-password",
		Short: "Remove the remote password from the keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ForgetSecret(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password removed")
			return nil
		},
	}
}
