package backend

import (
	"os"

	"github.com/karrick/godirwalk"
)

// CacheDiskUsage walks dir (a backend's on-disk cache directory, e.g.
// /var/cache/apt/archives) and returns the total size of regular files.
// godirwalk is used instead of filepath.Walk for the same reason the
// teacher reaches for it scanning import-path trees: readdir-order
// traversal avoids re-sorting large directories, which matters when a
// cache directory holds tens of thousands of small package files.
func CacheDiskUsage(dir string) (int64, error) {
	var total int64
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if !de.IsRegular() {
				return nil
			}
			info, err := os.Stat(osPathname)
			if err != nil {
				return nil // file may have been removed mid-walk; skip it
			}
			total += info.Size()
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
