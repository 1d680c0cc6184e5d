// Package interactive provides the interactive command-line interface
// for gazelink-probe.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/gazelink-protocol/gazelink-go/pkg/compositor"
	"github.com/gazelink-protocol/gazelink-go/pkg/headset"
	"github.com/gazelink-protocol/gazelink-go/pkg/sim"
)

// Probe handles interactive mode for gazelink-probe.
type Probe struct {
	runtime    *sim.Runtime
	headset    *headset.Headset
	compositor *compositor.Client
	rl         *readline.Instance
}

// New creates a new interactive probe handler.
func New(runtime *sim.Runtime, hs *headset.Headset, comp *compositor.Client) (*Probe, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "probe> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Probe{
		runtime:    runtime,
		headset:    hs,
		compositor: comp,
		rl:         rl,
	}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (p *Probe) Stdout() io.Writer {
	return p.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (p *Probe) Stderr() io.Writer {
	return p.rl.Stderr()
}

// Run starts the interactive command loop.
func (p *Probe) Run(ctx context.Context, cancel context.CancelFunc) {
	defer p.rl.Close()

	p.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := p.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(p.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			p.printHelp()

		case "status", "s":
			p.cmdStatus()

		case "versions":
			p.cmdVersions()

		case "hardware", "hw":
			p.cmdHardware()

		case "licenses":
			p.cmdLicenses()

		case "caps":
			p.cmdCaps()

		case "register", "reg":
			p.cmdRegister(args)

		case "unregister", "unreg":
			p.cmdUnregister(args)

		case "fetch", "f":
			p.cmdFetch(args)

		case "gaze", "g":
			p.cmdGaze(args)

		case "depth":
			p.cmdDepth()

		case "eyes":
			p.cmdEyes()

		case "user":
			p.cmdUser(args)

		case "pose":
			p.cmdPose()

		case "wait", "w":
			p.cmdWait(args)

		case "calib", "c":
			p.cmdCalib(args)

		case "object", "obj":
			p.cmdObject(args)

		case "gazed":
			p.cmdGazed()

		case "profile":
			p.cmdProfile(args)

		case "config":
			p.cmdConfig(args)

		case "projection", "proj":
			p.cmdProjection(args)

		case "tare":
			p.cmdTare(args)

		case "layer":
			p.cmdLayer(args)

		case "frame":
			p.cmdFrame(args)

		case "quit", "exit", "q":
			fmt.Fprintln(p.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(p.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (p *Probe) printHelp() {
	fmt.Fprintln(p.rl.Stdout(), `
GazeLink Probe Commands:
  Runtime:
    status             - Show tracking status flags
    versions           - Show client, runtime and firmware versions
    hardware           - Show connected hardware info
    licenses           - List activated licenses
    user on|off        - Set simulated user presence

  Capabilities:
    caps               - Show registered capability sets
    register <cap>...  - Register active capabilities (e.g. EyeTracking)
    unregister <cap>...- Unregister active capabilities
    register passive <cap>...   - Register passive capabilities
    unregister passive <cap>... - Unregister passive capabilities

  Data:
    fetch [eye|pose|image|position] - Fetch the newest frame into the cache
    gaze [left|right]  - Show gaze vectors (combined ray without an eye)
    depth              - Show combined gaze depth
    eyes               - Show eye states, pupil and iris radii
    pose               - Show headset pose
    wait [timeout]     - Wait for the next processed eye frame
    gazed              - Show the gazed scene object

  Calibration:
    calib start [method] [lazy] [restart] - Start calibration
    calib tick [dt]    - Render one calibration tick
    calib run          - Tick until the process finishes
    calib state        - Show calibration state
    calib stop         - Abort calibration

  Scene:
    object add <id> <x> <y> <z> <radius> - Register a sphere object
    object rm <id>     - Remove an object

  Profiles and Config:
    profile list|current|create|delete|use|rename
    config get <key> | set <key> <value> | clear <key>

  Rendering:
    projection <near> <far> - Show projection matrices
    tare orientation|position
    layer create [base|overlay|diagnostic] - Create a compositor layer
    layer list         - List created layers
    frame [layer-id]   - Wait for a render pose and submit one frame

  General:
    help               - Show this help
    quit               - Exit probe`)
}
