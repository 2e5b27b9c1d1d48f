package iccmd

import (
	"go.brendoncarroll.net/star"

	"intcode.dev/intcode/icapp"
	"intcode.dev/intcode/icpipe"
	"intcode.dev/intcode/icvm"
)

var runCmd = star.Command{
	Metadata: star.Metadata{
		Short: "run a program from a file, and print its output",
		Tags:  []string{"machine"},
	},
	Flags: []star.IParam{ConfigParam, catalogueParam, inputParam},
	Pos:   []star.IParam{progParam},
	F: func(c star.Context) error {
		ctx, cfg, err := setup(c, withCatalogue)
		if err != nil {
			return err
		}
		cat, err := icvm.ParseCatalogue(cfg.Catalogue)
		if err != nil {
			return err
		}
		in := icvm.NewQueue(loadOr(c, inputParam, nil)...)
		in.Close()
		m := icvm.New(progParam.Load(c), icvm.Config{
			Catalogue: cat,
			StepLimit: cfg.StepLimit,
			Input:     in,
		})
		_, runErr := m.Run(ctx)
		for v := range m.Outputs() {
			c.Printf("%d\n", v)
		}
		if runErr != nil {
			return runErr
		}
		if cat == icvm.Baseline {
			c.Printf("memory: %v\n", m)
		}
		return nil
	},
}

var amplifyCmd = star.Command{
	Metadata: star.Metadata{
		Short: "find the phase settings which produce the largest signal",
		Tags:  []string{"machine"},
	},
	Flags: []star.IParam{ConfigParam, catalogueParam, phasesParam, topologyParam},
	Pos:   []star.IParam{progParam},
	F: func(c star.Context) error {
		ctx, cfg, err := setup(c, withCatalogue)
		if err != nil {
			return err
		}
		cat, err := icvm.ParseCatalogue(cfg.Catalogue)
		if err != nil {
			return err
		}
		phases := loadOr(c, phasesParam, defaultPhases)
		topo := loadOr(c, topologyParam, icpipe.TopologyLinear)
		best, err := icpipe.MaxSignal(ctx, progParam.Load(c), phases, topo, icvm.Config{
			Catalogue: cat,
			StepLimit: cfg.StepLimit,
		})
		if err != nil {
			return err
		}
		c.Printf("signal: %d\nphases: %s\n", best.Signal, icvm.FormatWords(best.Phases))
		return nil
	},
}

var (
	nounParam = star.Param[icvm.Word]{
		Name:     "noun",
		Repeated: true,
		Parse:    parseWord,
	}
	verbParam = star.Param[icvm.Word]{
		Name:     "verb",
		Repeated: true,
		Parse:    parseWord,
	}
	// targetParam switches alarm from running one noun and verb to searching for them.
	targetParam = star.Param[icvm.Word]{
		Name:     "target",
		Repeated: true,
		Parse:    parseWord,
	}
)

var alarmCmd = star.Command{
	Metadata: star.Metadata{
		Short: "run a gravity assist program, or search for the noun and verb producing --target",
		Tags:  []string{"machine"},
	},
	Flags: []star.IParam{ConfigParam, nounParam, verbParam, targetParam},
	Pos:   []star.IParam{progParam},
	F: func(c star.Context) error {
		ctx, _, err := setup(c)
		if err != nil {
			return err
		}
		prog := progParam.Load(c)
		if target, ok := targetParam.LoadOpt(c); ok {
			noun, verb, err := icapp.FindNounVerb(ctx, prog, target)
			if err != nil {
				return err
			}
			c.Printf("noun: %d\nverb: %d\nanswer: %d\n", noun, verb, 100*noun+verb)
			return nil
		}
		out, err := icapp.Alarm(ctx, prog, loadOr(c, nounParam, icapp.AlarmNoun), loadOr(c, verbParam, icapp.AlarmVerb))
		if err != nil {
			return err
		}
		c.Printf("%d\n", out)
		return nil
	},
}

var startParam = star.Param[icvm.Word]{
	Name:     "start",
	Repeated: true,
	Parse: func(x string) (icvm.Word, error) {
		switch x {
		case "white", "1":
			return icapp.White, nil
		case "black", "0":
			return icapp.Black, nil
		}
		return parseWord(x)
	},
}

var paintCmd = star.Command{
	Metadata: star.Metadata{
		Short: "run a hull painting robot, and draw the hull",
		Tags:  []string{"machine"},
	},
	Flags: []star.IParam{ConfigParam, startParam},
	Pos:   []star.IParam{progParam},
	F: func(c star.Context) error {
		ctx, _, err := setup(c)
		if err != nil {
			return err
		}
		hull, err := icapp.Paint(ctx, progParam.Load(c), loadOr(c, startParam, icapp.Black))
		if err != nil {
			return err
		}
		c.Printf("painted: %d\n%s", hull.Painted(), hull.String())
		return nil
	},
}
