package iccmd

import (
	"encoding/json"
	"net"

	"go.brendoncarroll.net/star"
	"golang.org/x/sync/errgroup"

	"intcode.dev/intcode/icss"
	"intcode.dev/intcode/icss/ichui"
	"intcode.dev/intcode/icvm"
	"intcode.dev/intcode/internal/cadata"
)

var programIDParam = star.Param[icss.ProgramID]{
	Name:  "id",
	Parse: cadata.ParseID,
}

var nameParam = star.Param[string]{
	Name:     "name",
	Repeated: true,
	Parse:    star.ParseString,
}

var fileParam = star.Param[string]{
	Name:  "file",
	Parse: star.ParseString,
}

var addCmd = star.Command{
	Metadata: star.Metadata{
		Short: "add a program to the registry",
		Tags:  []string{"registry"},
	},
	Flags: []star.IParam{ConfigParam, DBParam, nameParam},
	Pos:   []star.IParam{fileParam},
	F: func(c star.Context) error {
		ctx, cfg, err := setup(c, withDB)
		if err != nil {
			return err
		}
		sys, closeDB, err := openSystem(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		p := fileParam.Load(c)
		prog, err := loadProgram(p)
		if err != nil {
			return err
		}
		name := loadOr(c, nameParam, "")
		if name == "" {
			name = p
		}
		id, err := sys.AddProgram(ctx, name, prog.String())
		if err != nil {
			return err
		}
		c.Printf("%v\n", id)
		return nil
	},
}

var listCmd = star.Command{
	Metadata: star.Metadata{
		Short: "list the programs in the registry",
		Tags:  []string{"registry"},
	},
	Flags: []star.IParam{ConfigParam, DBParam},
	F: func(c star.Context) error {
		ctx, cfg, err := setup(c, withDB)
		if err != nil {
			return err
		}
		sys, closeDB, err := openSystem(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		infos, err := sys.ListPrograms(ctx)
		if err != nil {
			return err
		}
		c.Printf("%-43s %8s %s\n", "ID", "SIZE", "NAME")
		for _, info := range infos {
			c.Printf("%-43v %8d %s\n", info.ID, info.Words, info.Name)
		}
		return nil
	},
}

var dropCmd = star.Command{
	Metadata: star.Metadata{
		Short: "remove a program and its runs from the registry",
		Tags:  []string{"registry"},
	},
	Flags: []star.IParam{ConfigParam, DBParam},
	Pos:   []star.IParam{programIDParam},
	F: func(c star.Context) error {
		ctx, cfg, err := setup(c, withDB)
		if err != nil {
			return err
		}
		sys, closeDB, err := openSystem(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		return sys.DropProgram(ctx, programIDParam.Load(c))
	},
}

var runsCmd = star.Command{
	Metadata: star.Metadata{
		Short: "list the runs of a program",
		Tags:  []string{"registry"},
	},
	Flags: []star.IParam{ConfigParam, DBParam},
	Pos:   []star.IParam{programIDParam},
	F: func(c star.Context) error {
		ctx, cfg, err := setup(c, withDB)
		if err != nil {
			return err
		}
		sys, closeDB, err := openSystem(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		runs, err := sys.ListRuns(ctx, programIDParam.Load(c))
		if err != nil {
			return err
		}
		c.Printf("%6s %-8s %10s %s\n", "ID", "STATE", "STEPS", "OUTPUT")
		for _, r := range runs {
			c.Printf("%6d %-8s %10d %v\n", r.ID, r.State, r.Steps, r.Output)
		}
		return nil
	},
}

var invokeCmd = star.Command{
	Metadata: star.Metadata{
		Short: "run a program from the registry, and print the run record as JSON",
		Tags:  []string{"registry"},
	},
	Flags: []star.IParam{ConfigParam, DBParam, catalogueParam, inputParam},
	Pos:   []star.IParam{programIDParam},
	F: func(c star.Context) error {
		ctx, cfg, err := setup(c, withDB, withCatalogue)
		if err != nil {
			return err
		}
		sys, closeDB, err := openSystem(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		cat, err := icvm.ParseCatalogue(cfg.Catalogue)
		if err != nil {
			return err
		}
		rec, err := sys.Run(ctx, programIDParam.Load(c), icss.RunParams{
			Input:     loadOr(c, inputParam, nil),
			Catalogue: cat,
		})
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		c.Printf("%s\n", data)
		return nil
	},
}

// ListenParam overrides the listen address in the config when it is not empty.
var ListenParam = star.Param[string]{
	Name:     "l",
	Repeated: true,
	Parse:    star.ParseString,
}

var serveCmd = star.Command{
	Metadata: star.Metadata{
		Short: "serve the registry over HTTP",
		Tags:  []string{"registry"},
	},
	Flags: []star.IParam{ConfigParam, DBParam, ListenParam},
	F: func(c star.Context) error {
		ctx, cfg, err := setup(c, withDB)
		if err != nil {
			return err
		}
		if l := loadOr(c, ListenParam, ""); l != "" {
			cfg.Listen = l
		}
		sys, closeDB, err := openSystem(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()
		lis, err := net.Listen("tcp", cfg.Listen)
		if err != nil {
			return err
		}
		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error { return ichui.Serve(ctx, lis, sys) })
		return eg.Wait()
	},
}
