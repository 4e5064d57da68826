package statepaths

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestStoreDirUnderStateDir(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := t.TempDir()
	viper.Set("file_state_dir", root)
	if got, want := StoreDir(), filepath.Join(root, "store"); got != want {
		t.Fatalf("StoreDir() = %q, want %q", got, want)
	}

	viper.Set("store.dir_name", "kv")
	if got, want := StoreDir(), filepath.Join(root, "kv"); got != want {
		t.Fatalf("StoreDir() = %q, want %q", got, want)
	}
}
