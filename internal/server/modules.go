package server

import (
	"context"
	"fmt"
	"log/slog"
)

// InitModules boots every module on its own group mounted under /app/<name>.
// ctx is the application lifetime; modules run their background work on it.
func (s *Server) InitModules(ctx context.Context) error {
	seen := make(map[string]bool, len(s.modules))
	for _, m := range s.modules {
		name := m.Name()
		if seen[name] {
			return fmt.Errorf("module %q registered twice", name)
		}
		seen[name] = true

		group := s.E.Group("/app/" + name)
		if err := m.Boot(ctx, group); err != nil {
			return fmt.Errorf("boot module %s: %w", name, err)
		}
		slog.Info("Module booted", "module", name, "path", "/app/"+name)
	}
	return nil
}
