// package iccmd implements the intcode command line tool.
package iccmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.brendoncarroll.net/star"
	"go.brendoncarroll.net/stdctx/logctx"

	"intcode.dev/intcode/icpipe"
	"intcode.dev/intcode/icss"
	"intcode.dev/intcode/icvm"
)

func Root() star.Command {
	return root
}

var root = star.NewDir(star.Metadata{
	Short: "intcode machines, pipelines, and a program registry",
}, map[star.Symbol]star.Command{
	// machine commands
	"run":     runCmd,
	"amplify": amplifyCmd,
	"alarm":   alarmCmd,
	"paint":   paintCmd,

	// registry commands
	"add":    addCmd,
	"list":   listCmd,
	"drop":   dropCmd,
	"runs":   runsCmd,
	"invoke": invokeCmd,
	"serve":  serveCmd,
})

// Optional flags are Repeated and read with LoadOpt; the last value given wins.

// ConfigParam names a TOML config file. Without it the command uses DefaultConfig.
var ConfigParam = star.Param[Config]{
	Name:     "config",
	Repeated: true,
	Parse:    LoadConfig,
}

// DBParam overrides the database in the config when it is not empty.
var DBParam = star.Param[string]{
	Name:     "db",
	Repeated: true,
	Parse:    star.ParseString,
}

var progParam = star.Param[icvm.Program]{
	Name:  "prog",
	Parse: loadProgram,
}

var inputParam = star.Param[[]icvm.Word]{
	Name:     "input",
	Repeated: true,
	Parse:    parseWords,
}

// catalogueParam overrides the catalogue in the config when it is not empty.
var catalogueParam = star.Param[string]{
	Name:     "catalogue",
	Repeated: true,
	Parse:    star.ParseString,
}

var phasesParam = star.Param[[]icvm.Word]{
	Name:     "phases",
	Repeated: true,
	Parse:    parseWords,
}

var topologyParam = star.Param[icpipe.Topology]{
	Name:     "topology",
	Repeated: true,
	Parse:    icpipe.ParseTopology,
}

var defaultPhases = []icvm.Word{0, 1, 2, 3, 4}

// loadOr returns the value of the optional param p, or dflt if it was not given.
func loadOr[T any](c star.Context, p star.Param[T], dflt T) T {
	if x, ok := p.LoadOpt(c); ok {
		return x
	}
	return dflt
}

// loadProgram reads a program from the file at p, or from stdin if p is "-".
func loadProgram(p string) (icvm.Program, error) {
	var data []byte
	var err error
	if p == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(p)
	}
	if err != nil {
		return nil, err
	}
	return icvm.ParseProgram(string(data))
}

func parseWords(x string) ([]icvm.Word, error) {
	x = strings.TrimSpace(x)
	if x == "" {
		return nil, nil
	}
	p, err := icvm.ParseProgram(x)
	return []icvm.Word(p), err
}

func parseWord(x string) (icvm.Word, error) {
	return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
}

// override changes the config after it is loaded.
type override = func(c star.Context, cfg *Config)

// withDB applies DBParam. Only commands which take DBParam may pass it to setup.
func withDB(c star.Context, cfg *Config) {
	if db := loadOr(c, DBParam, ""); db != "" {
		cfg.DB = db
	}
}

// withCatalogue applies catalogueParam. Only commands which take catalogueParam may pass it to setup.
func withCatalogue(c star.Context, cfg *Config) {
	if cat := loadOr(c, catalogueParam, ""); cat != "" {
		cfg.Catalogue = cat
	}
}

// setup attaches a logger to the command's context, and returns the effective config.
func setup(c star.Context, overrides ...override) (context.Context, Config, error) {
	cfg := loadOr(c, ConfigParam, DefaultConfig())
	for _, o := range overrides {
		o(c, &cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, Config{}, err
	}
	l, err := cfg.NewLogger()
	if err != nil {
		return nil, Config{}, err
	}
	return logctx.NewContext(c.Context, l), cfg, nil
}

// openSystem opens and migrates the database named by cfg.
func openSystem(ctx context.Context, cfg Config) (*icss.System, func() error, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, nil, err
	}
	db, err := icss.OpenDB(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if err := icss.SetupDB(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("setting up %s: %w", cfg.DB, err)
	}
	return icss.NewSystem(db, params), db.Close, nil
}
