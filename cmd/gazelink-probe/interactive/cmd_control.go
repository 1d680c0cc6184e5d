package interactive

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/calibration"
	"github.com/gazelink-protocol/gazelink-go/pkg/compositor"
	"github.com/gazelink-protocol/gazelink-go/pkg/geom"
	"github.com/gazelink-protocol/gazelink-go/pkg/scene"
)

// cmdCalib handles the calib command.
func (p *Probe) cmdCalib(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(p.rl.Stdout(), "Usage: calib start|tick|run|state|stop")
		return
	}

	switch args[0] {
	case "start":
		opts := calibration.Options{}
		for _, arg := range args[1:] {
			switch arg {
			case "lazy":
				opts.Lazy = true
			case "restart":
				opts.Restart = true
			default:
				method, ok := parseMethod(arg)
				if !ok {
					fmt.Fprintf(p.rl.Stdout(), "Unknown option: %s\n", arg)
					return
				}
				opts.Method = method
			}
		}
		if err := p.headset.StartEyeTrackingCalibration(opts); err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintf(p.rl.Stdout(), "Calibration started (%s)\n", opts.Method)

	case "tick":
		dt := 100 * time.Millisecond
		if len(args) > 1 {
			d, err := time.ParseDuration(args[1])
			if err != nil {
				fmt.Fprintln(p.rl.Stdout(), "Usage: calib tick [dt]")
				return
			}
			dt = d
		}
		data, err := p.headset.TickEyeTrackingCalibration(dt, true)
		if err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
			return
		}
		p.printCalibData(data)

	case "run":
		// Tick as the prioritized renderer until the process finishes.
		deadline := time.Now().Add(30 * time.Second)
		var last calibration.State
		for time.Now().Before(deadline) {
			data, err := p.headset.TickEyeTrackingCalibration(100*time.Millisecond, true)
			if err != nil {
				fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
				return
			}
			if data.State != last {
				last = data.State
				fmt.Fprintf(p.rl.Stdout(), "State: %s\n", data.State)
			}
			if data.State.IsTerminal() {
				return
			}
			time.Sleep(100 * time.Millisecond)
		}
		fmt.Fprintln(p.rl.Stdout(), "Gave up after 30s")

	case "state":
		state, err := p.headset.EyeTrackingCalibrationState()
		if err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
			return
		}
		calibrated, _ := p.headset.IsEyeTrackingCalibrated()
		fmt.Fprintf(p.rl.Stdout(), "State: %s (calibrated=%v)\n", state, calibrated)

	case "stop":
		if err := p.headset.StopEyeTrackingCalibration(); err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintln(p.rl.Stdout(), "Calibration stopped")

	default:
		fmt.Fprintln(p.rl.Stdout(), "Usage: calib start|tick|run|state|stop")
	}
}

func (p *Probe) printCalibData(data calibration.Data) {
	fmt.Fprintf(p.rl.Stdout(), "State: %s (%s)\n", data.State, data.Method)
	if data.TargetLeft.RecommendedSize > 0 {
		fmt.Fprintf(p.rl.Stdout(), "Target left:  %s size=%.3f\n",
			formatVec3(data.TargetLeft.Position), data.TargetLeft.RecommendedSize)
		fmt.Fprintf(p.rl.Stdout(), "Target right: %s size=%.3f\n",
			formatVec3(data.TargetRight.Position), data.TargetRight.RecommendedSize)
	}
}

func parseMethod(s string) (calibration.Method, bool) {
	switch s {
	case "default":
		return calibration.MethodDefault, true
	case "zero", "zeropoint":
		return calibration.MethodZeroPoint, true
	case "one", "onepoint":
		return calibration.MethodOnePoint, true
	case "spiral":
		return calibration.MethodSpiral, true
	default:
		return 0, false
	}
}

// cmdObject handles the object command.
func (p *Probe) cmdObject(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(p.rl.Stdout(), "Usage: object add <id> <x> <y> <z> <radius> | object rm <id>")
		return
	}

	switch args[0] {
	case "add":
		if len(args) != 6 {
			fmt.Fprintln(p.rl.Stdout(), "Usage: object add <id> <x> <y> <z> <radius>")
			return
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Invalid id: %s\n", args[1])
			return
		}
		var vals [4]float64
		for i, arg := range args[2:] {
			vals[i], err = strconv.ParseFloat(arg, 64)
			if err != nil {
				fmt.Fprintf(p.rl.Stdout(), "Invalid number: %s\n", arg)
				return
			}
		}
		pose := scene.DefaultObjectPose()
		pose.Position = geom.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}
		obj := scene.GazableObject{
			ID:   id,
			Pose: pose,
			Collider: scene.Collider{
				Shape:  scene.ShapeSphere,
				Radius: vals[3],
			},
		}
		if err := p.headset.RegisterGazableObject(obj); err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintf(p.rl.Stdout(), "Registered sphere %d at %s r=%.2f\n", id, formatVec3(pose.Position), vals[3])

	case "rm":
		if len(args) != 2 {
			fmt.Fprintln(p.rl.Stdout(), "Usage: object rm <id>")
			return
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Invalid id: %s\n", args[1])
			return
		}
		if err := p.headset.RemoveGazableObject(id); err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintf(p.rl.Stdout(), "Removed object %d\n", id)

	default:
		fmt.Fprintln(p.rl.Stdout(), "Usage: object add <id> <x> <y> <z> <radius> | object rm <id>")
	}
}

// cmdProfile handles the profile command.
func (p *Probe) cmdProfile(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(p.rl.Stdout(), "Usage: profile list|current|create|delete|use|rename")
		return
	}

	var err error
	switch args[0] {
	case "list":
		var names []string
		names, err = p.headset.ListProfiles()
		if err == nil {
			current, _ := p.headset.CurrentProfile()
			if len(names) == 0 {
				fmt.Fprintln(p.rl.Stdout(), "No profiles")
			}
			for _, name := range names {
				marker := " "
				if name == current {
					marker = "*"
				}
				fmt.Fprintf(p.rl.Stdout(), "%s %s\n", marker, name)
			}
		}

	case "current":
		var current string
		current, err = p.headset.CurrentProfile()
		if err == nil {
			if current == "" {
				fmt.Fprintln(p.rl.Stdout(), "No current profile")
			} else {
				fmt.Fprintln(p.rl.Stdout(), current)
			}
		}

	case "create":
		if len(args) != 2 {
			fmt.Fprintln(p.rl.Stdout(), "Usage: profile create <name>")
			return
		}
		err = p.headset.CreateProfile(args[1])

	case "delete":
		if len(args) != 2 {
			fmt.Fprintln(p.rl.Stdout(), "Usage: profile delete <name>")
			return
		}
		err = p.headset.DeleteProfile(args[1])

	case "use":
		if len(args) != 2 {
			fmt.Fprintln(p.rl.Stdout(), "Usage: profile use <name>")
			return
		}
		err = p.headset.SetCurrentProfile(args[1])

	case "rename":
		if len(args) != 3 {
			fmt.Fprintln(p.rl.Stdout(), "Usage: profile rename <old> <new>")
			return
		}
		err = p.headset.RenameProfile(args[1], args[2])

	default:
		fmt.Fprintln(p.rl.Stdout(), "Usage: profile list|current|create|delete|use|rename")
		return
	}
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
	}
}

// cmdConfig handles the config command. Values are probed by type on
// read since the store is typed.
func (p *Probe) cmdConfig(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(p.rl.Stdout(), "Usage: config get <key> | set <key> <value> | clear <key>")
		return
	}
	key := args[1]

	switch args[0] {
	case "get":
		if v, err := p.headset.ConfigFloat(key); err == nil {
			fmt.Fprintf(p.rl.Stdout(), "%s = %g\n", key, v)
			return
		}
		if v, err := p.headset.ConfigInt(key); err == nil {
			fmt.Fprintf(p.rl.Stdout(), "%s = %d\n", key, v)
			return
		}
		if v, err := p.headset.ConfigBool(key); err == nil {
			fmt.Fprintf(p.rl.Stdout(), "%s = %v\n", key, v)
			return
		}
		v, err := p.headset.ConfigString(key)
		if err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintf(p.rl.Stdout(), "%s = %q\n", key, v)

	case "set":
		if len(args) != 3 {
			fmt.Fprintln(p.rl.Stdout(), "Usage: config set <key> <value>")
			return
		}
		if err := p.setConfig(key, args[2]); err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		}

	case "clear":
		if err := p.headset.ClearConfig(key); err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintf(p.rl.Stdout(), "%s reset to default\n", key)

	default:
		fmt.Fprintln(p.rl.Stdout(), "Usage: config get <key> | set <key> <value> | clear <key>")
	}
}

// setConfig guesses the value type from its syntax.
func (p *Probe) setConfig(key, value string) error {
	if b, err := strconv.ParseBool(value); err == nil {
		return p.headset.SetConfigBool(key, b)
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return p.headset.SetConfigInt(key, i)
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return p.headset.SetConfigFloat(key, f)
	}
	return p.headset.SetConfigString(key, value)
}

// cmdProjection handles the projection command.
func (p *Probe) cmdProjection(args []string) {
	near, far := 0.1, 100.0
	if len(args) == 2 {
		var err error
		if near, err = strconv.ParseFloat(args[0], 64); err != nil {
			fmt.Fprintln(p.rl.Stdout(), "Usage: projection <near> <far>")
			return
		}
		if far, err = strconv.ParseFloat(args[1], 64); err != nil {
			fmt.Fprintln(p.rl.Stdout(), "Usage: projection <near> <far>")
			return
		}
	}

	m, err := p.headset.ProjectionMatrices(near, far)
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	iod, _ := p.headset.RenderIOD()
	fmt.Fprintf(p.rl.Stdout(), "Render IOD: %.4fm\n", iod)
	fmt.Fprintln(p.rl.Stdout(), "Left:")
	p.printMatrix(m.Left)
	fmt.Fprintln(p.rl.Stdout(), "Right:")
	p.printMatrix(m.Right)
}

func (p *Probe) printMatrix(m geom.Matrix44) {
	for _, row := range m {
		fmt.Fprintf(p.rl.Stdout(), "  %8.4f %8.4f %8.4f %8.4f\n", row[0], row[1], row[2], row[3])
	}
}

// cmdTare handles the tare command.
func (p *Probe) cmdTare(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(p.rl.Stdout(), "Usage: tare orientation|position")
		return
	}
	var err error
	switch args[0] {
	case "orientation":
		err = p.headset.TareOrientation()
	case "position":
		err = p.headset.TarePosition()
	default:
		fmt.Fprintln(p.rl.Stdout(), "Usage: tare orientation|position")
		return
	}
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(p.rl.Stdout(), "Tared %s\n", args[0])
}

// cmdLayer handles the layer command.
func (p *Probe) cmdLayer(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(p.rl.Stdout(), "Usage: layer create [base|overlay|diagnostic] | layer list")
		return
	}

	switch args[0] {
	case "create":
		layerType := compositor.LayerTypeBase
		if len(args) > 1 {
			switch args[1] {
			case "base":
				layerType = compositor.LayerTypeBase
			case "overlay":
				layerType = compositor.LayerTypeOverlay
			case "diagnostic", "diag":
				layerType = compositor.LayerTypeDiagnostic
			default:
				fmt.Fprintln(p.rl.Stdout(), "Usage: layer create [base|overlay|diagnostic]")
				return
			}
		}
		layer, err := p.compositor.CreateLayer(compositor.LayerCreateInfo{Type: layerType})
		if err != nil {
			fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintf(p.rl.Stdout(), "Created %s layer %d, ideal resolution %dx%d per eye\n",
			layer.Info.Type, layer.ID, layer.IdealResolution.Width, layer.IdealResolution.Height)

	case "list":
		layers := p.compositor.Layers()
		if len(layers) == 0 {
			fmt.Fprintln(p.rl.Stdout(), "No layers created")
			return
		}
		for _, l := range layers {
			fmt.Fprintf(p.rl.Stdout(), "%d: %s %dx%d\n",
				l.ID, l.Info.Type, l.IdealResolution.Width, l.IdealResolution.Height)
		}

	default:
		fmt.Fprintln(p.rl.Stdout(), "Usage: layer create [base|overlay|diagnostic] | layer list")
	}
}

// cmdFrame handles the frame command: one wait/submit cycle on a layer.
func (p *Probe) cmdFrame(args []string) {
	layers := p.compositor.Layers()
	if len(layers) == 0 {
		fmt.Fprintln(p.rl.Stdout(), "No layers created (use 'layer create' first)")
		return
	}
	layerID := layers[0].ID
	if len(args) > 0 {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintln(p.rl.Stdout(), "Usage: frame [layer-id]")
			return
		}
		layerID = id
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	pose, err := p.compositor.WaitForRenderPose(ctx)
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}

	err = p.compositor.Submit(compositor.LayerSubmitInfo{
		LayerID: layerID,
		Pose:    pose,
		Left:    compositor.EyeTexture{TextureID: 1, Bounds: compositor.FullTextureBounds()},
		Right:   compositor.EyeTexture{TextureID: 2, Bounds: compositor.FullTextureBounds()},
	})
	if err != nil {
		fmt.Fprintf(p.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(p.rl.Stdout(), "Submitted frame %s on layer %d after %v\n",
		pose.Timestamp, layerID, time.Since(start).Round(time.Microsecond))
}
