// package ichui serves the intcode registry over HTTP.
package ichui

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.brendoncarroll.net/exp/slices2"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"intcode.dev/intcode/icpipe"
	"intcode.dev/intcode/icss"
	"intcode.dev/intcode/icvm"
	"intcode.dev/intcode/internal/cadata"
)

type Word = icvm.Word

func Serve(ctx context.Context, l net.Listener, sys *icss.System) error {
	return New(sys).Serve(ctx, l)
}

type Server struct {
	sys   *icss.System
	app   *fiber.App
	bgCtx context.Context
}

func New(sys *icss.System) *Server {
	s := &Server{sys: sys, bgCtx: context.Background()}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	v1 := app.Group("/v1")
	v1.Get("/programs", s.listPrograms)
	v1.Post("/programs", s.postProgram)
	v1.Get("/programs/:id", s.getProgram)
	v1.Delete("/programs/:id", s.dropProgram)
	v1.Post("/programs/:id/run", s.run)
	v1.Post("/programs/:id/amplify", s.amplify)
	v1.Get("/programs/:id/runs", s.listRuns)
	v1.Get("/programs/:id/ws", websocket.New(s.handleWS))
	v1.Get("/runs/:run", s.getRun)
	s.app = app
	return s
}

// Serve serves on l until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.bgCtx = ctx
	logctx.Infof(ctx, "serving on %v", l.Addr())
	go func() {
		<-ctx.Done()
		s.app.Shutdown()
	}()
	return s.app.Listener(l)
}

type programInfo struct {
	ID        icss.ProgramID `json:"id"`
	Name      string         `json:"name"`
	Size      int            `json:"size"`
	CreatedAt string         `json:"created_at"`
	Code      string         `json:"code,omitempty"`
}

func makeProgramInfo(x icss.ProgramInfo) programInfo {
	return programInfo{
		ID:        x.ID,
		Name:      x.Name,
		Size:      x.Words,
		CreatedAt: x.CreatedAt.Time().Format(time.RFC3339Nano),
	}
}

func (s *Server) listPrograms(c *fiber.Ctx) error {
	infos, err := s.sys.ListPrograms(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(slices2.Map(infos, makeProgramInfo))
}

type postProgramReq struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (s *Server) postProgram(c *fiber.Ctx) error {
	var req postProgramReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id, err := s.sys.AddProgram(c.Context(), req.Name, req.Code)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) getProgram(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := getID(c)
	if err != nil {
		return err
	}
	info, err := s.sys.GetProgramInfo(ctx, id)
	if err != nil {
		return err
	}
	prog, err := s.sys.GetProgram(ctx, id)
	if err != nil {
		return err
	}
	resp := makeProgramInfo(*info)
	resp.Code = prog.String()
	return c.JSON(resp)
}

func (s *Server) dropProgram(c *fiber.Ctx) error {
	id, err := getID(c)
	if err != nil {
		return err
	}
	if err := s.sys.DropProgram(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type runReq struct {
	Input     []Word `json:"input"`
	Catalogue string `json:"catalogue"`
}

func (s *Server) run(c *fiber.Ctx) error {
	id, err := getID(c)
	if err != nil {
		return err
	}
	var req runReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	var cat icvm.Catalogue
	if req.Catalogue != "" {
		if cat, err = icvm.ParseCatalogue(req.Catalogue); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	rec, err := s.sys.Run(c.Context(), id, icss.RunParams{Input: req.Input, Catalogue: cat})
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

type amplifyReq struct {
	Topology string `json:"topology"`
	Phases   []Word `json:"phases"`
}

type amplifyResp struct {
	Signal Word   `json:"signal"`
	Phases []Word `json:"phases"`
}

func (s *Server) amplify(c *fiber.Ctx) error {
	id, err := getID(c)
	if err != nil {
		return err
	}
	var req amplifyReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	topo, err := icpipe.ParseTopology(req.Topology)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if len(req.Phases) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "phases must not be empty")
	}
	best, err := s.sys.Amplify(c.Context(), id, topo, req.Phases)
	if err != nil {
		return err
	}
	return c.JSON(amplifyResp{Signal: best.Signal, Phases: best.Phases})
}

func (s *Server) listRuns(c *fiber.Ctx) error {
	id, err := getID(c)
	if err != nil {
		return err
	}
	runs, err := s.sys.ListRuns(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(runs)
}

func (s *Server) getRun(c *fiber.Ctx) error {
	rid, err := strconv.ParseInt(c.Params("run"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	rec, err := s.sys.GetRun(c.Context(), icss.RunID(rid))
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func getID(c *fiber.Ctx) (icss.ProgramID, error) {
	id, err := cadata.ParseID(c.Params("id"))
	if err != nil {
		return icss.ProgramID{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, dst any) error {
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.As(err, &icss.ErrProgramNotFound{}):
		code = fiber.StatusNotFound
	case errors.As(err, &icss.ErrRunNotFound{}):
		code = fiber.StatusNotFound
	}
	if code == fiber.StatusInternalServerError {
		logctx.Error(c.Context(), "handling request", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
