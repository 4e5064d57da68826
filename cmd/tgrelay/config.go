package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const redacted = "<redacted>"

// secretKeys are masked by `tgrelay config`.
var secretKeys = []string{
	"telegram.bot_token",
	"store.redis.password",
	"store.postgres.dsn",
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML (secrets redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(effectiveConfig()); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func effectiveConfig() map[string]any {
	out := map[string]any{}
	for _, key := range viper.AllKeys() {
		if key == "config" {
			continue
		}
		v := viper.Get(key)
		if d, ok := v.(time.Duration); ok {
			v = d.String()
		}
		setNested(out, key, v)
	}
	for _, key := range secretKeys {
		if viper.GetString(key) != "" {
			setNested(out, key, redacted)
		}
	}
	return out
}

func setNested(m map[string]any, dotted string, v any) {
	parts := strings.Split(dotted, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}
