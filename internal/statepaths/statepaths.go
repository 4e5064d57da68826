package statepaths

import (
	"github.com/quailyquaily/tgrelay/internal/pathutil"
	"github.com/spf13/viper"
)

// StoreDir is the root of the file kv backend.
func StoreDir() string {
	return pathutil.ResolveStateChildDir(
		viper.GetString("file_state_dir"),
		viper.GetString("store.dir_name"),
		"store",
	)
}
