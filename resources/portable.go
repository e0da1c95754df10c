package resources

import (
	"os"
	"path/filepath"
)

const portablePath = "TestVGA_UserData"

// the portable path is used when an empty file named portable.txt is present
// in the same directory as the program binary
func checkPortable() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	_, err = os.Stat(filepath.Join(filepath.Dir(exe), "portable.txt"))
	return err == nil
}
