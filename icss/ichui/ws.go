package ichui

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"intcode.dev/intcode/icss"
	"intcode.dev/intcode/icvm"
	"intcode.dev/intcode/internal/cadata"
)

type wsInput struct {
	Input []Word `json:"input"`
}

// handleWS runs an interactive session.
// The server sends an update whenever the machine stops to wait for input, halts, or fails.
// The client answers each waiting update with a batch of input.
func (s *Server) handleWS(c *websocket.Conn) {
	ctx := s.bgCtx
	idStr := c.Params("id")
	logctx.Info(ctx, "started websocket", zap.String("program", idStr))
	defer logctx.Info(ctx, "closing websocket", zap.String("program", idStr))

	if err := func() error {
		ctx, cf := context.WithCancel(ctx)
		defer cf()
		id, err := cadata.ParseID(idStr)
		if err != nil {
			return err
		}
		var cat icvm.Catalogue
		if x := c.Query("catalogue"); x != "" {
			if cat, err = icvm.ParseCatalogue(x); err != nil {
				return err
			}
		}
		sess, err := s.sys.OpenSession(ctx, id, cat)
		if err != nil {
			return err
		}
		var input []Word
		for {
			u, err := sess.Feed(ctx, input...)
			if err != nil {
				return err
			}
			if err := c.WriteJSON(u); err != nil {
				return err
			}
			if sess.Done() {
				return nil
			}
			var msg wsInput
			if err := c.ReadJSON(&msg); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return nil
				}
				return err
			}
			input = msg.Input
		}
	}(); err != nil {
		logctx.Error(ctx, "handling websocket", zap.Error(err))
		if err := c.WriteJSON(icss.Update{State: icvm.Failed.String(), Error: err.Error()}); err != nil {
			logctx.Warn(ctx, "sending failure", zap.Error(err))
		}
	}
}
