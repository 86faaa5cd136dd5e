package tariff

import (
	"fmt"

	"github.com/levenlabs/go-lflag"
)

// Configured returns the rate table selected by flags. The bundled table is
// used unless -rates-file is set.
func Configured() *Table {
	path := lflag.String("rates-file", "", "YAML rate table to use instead of the bundled Queensland rates")

	t := &Table{}
	lflag.Do(func() {
		var (
			loaded *Table
			err    error
		)
		if *path != "" {
			loaded, err = LoadFile(*path)
		} else {
			loaded, err = Default()
		}
		if err != nil {
			panic(fmt.Sprintf("loading rate table failed: %v", err))
		}
		*t = *loaded
	})
	return t
}
