//go:build !release
// +build !release

package resources

const configDir = ".testvga"

func resourcePath() (string, error) {
	return configDir, nil
}
