package sources

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/moamenhredeen/swaybar-status-manager/protocol"
)

// DefaultCommandTimeout bounds a command run when no timeout is
// configured.  A stuck command must not stall the whole status line.
const DefaultCommandTimeout = 2 * time.Second

// A Command displays the output of an external command, trimmed of
// surrounding whitespace.  The command is run fresh on every refresh.
type Command struct {
	name    string
	argv    []string
	timeout time.Duration
}

// NewCommand returns a source named name that runs argv.  A
// non-positive timeout means DefaultCommandTimeout.
func NewCommand(name string, argv []string, timeout time.Duration) (*Command, error) {
	if len(argv) == 0 {
		return nil, errors.New("command source needs a command to run")
	}
	if name == "" {
		name = argv[0]
	}
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &Command{name: name, argv: argv, timeout: timeout}, nil
}

func (c *Command) Name() string {
	return c.name
}

func (c *Command) Block(ctx context.Context) (protocol.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...).Output()
	if ctx.Err() == context.DeadlineExceeded {
		return protocol.Block{}, fmt.Errorf("command %q timed out after %s", c.argv[0], c.timeout)
	}
	if err != nil {
		return protocol.Block{}, fmt.Errorf("command %q: %w", c.argv[0], err)
	}
	text := strings.TrimSpace(string(out))
	return *protocol.NewBlock(text).SetName(c.name), nil
}
