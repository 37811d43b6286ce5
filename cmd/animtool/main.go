// animtool is a CLI utility for inspecting, baking and playing skeletal
// animations stored in glTF files.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-anim/internal/assets"
	"github.com/Faultbox/midgard-anim/internal/config"
	"github.com/Faultbox/midgard-anim/internal/engine/model"
	"github.com/Faultbox/midgard-anim/internal/logger"
	"github.com/Faultbox/midgard-anim/pkg/anim"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("config: %+v", cfg)

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]
	manager := assets.NewManager(cfg.Animation)
	defer manager.Close()

	var cmdErr error
	switch command {
	case "info":
		cmdErr = cmdInfo(manager, args)
	case "bake":
		cmdErr = cmdBake(manager, args)
	case "play":
		cmdErr = cmdPlay(manager, args)
	case "dump":
		cmdErr = cmdDump(manager, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if cmdErr != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(cmdErr))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`animtool - skeletal animation utility

Usage:
  animtool [flags] <command> [options]

Flags:
  -config <file>   Config file (default: ./config.yaml or user config dir)
  -debug           Debug logging
  -speed <x>       Playback speed multiplier
  -catchup <bool>  Skip missed frames under long frame times
  -workers <n>     Parallel clip bakes

Commands:
  info <file>                      Show joints and clips
  bake <file>                      Bake every clip and report table sizes
  play [-dt s] [-t s] [-joint name] <file> <clip>
                                   Simulate playback and trace a joint
  dump [-frame n] <file> [clip]    Dump the rest pose or a baked palette

Examples:
  animtool info knight.glb
  animtool -workers 8 bake knight.glb
  animtool -speed 0.5 play -dt 0.033 -joint hand_l knight.glb walk
  animtool dump -frame 10 knight.glb walk`)
}

func loadModel(manager *assets.Manager, path string) (*model.Model, error) {
	start := time.Now()
	mdl, err := manager.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("model loaded", zap.String("path", path), zap.Duration("elapsed", time.Since(start)))
	return mdl, nil
}

func cmdInfo(manager *assets.Manager, args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: animtool info <file>")
		os.Exit(1)
	}

	mdl, err := loadModel(manager, args[0])
	if err != nil {
		return err
	}

	arm := mdl.Armature()
	rest := arm.RestPose()
	fmt.Printf("Model:  %s\n", mdl.Name())
	fmt.Printf("Joints: %d\n", arm.JointCount())
	for j := range arm.JointCount() {
		parent := "-"
		if p := rest.Parent(j); p != anim.RootParent {
			parent = arm.JointName(p)
		}
		fmt.Printf("  %3d %-24s parent %s\n", j, arm.JointName(j), parent)
	}

	fmt.Println()
	fmt.Printf("Clips: %d\n", len(mdl.ClipNames()))
	for _, name := range mdl.ClipNames() {
		clip := mdl.Clip(name)
		fmt.Printf("  %-24s %6.3fs  %3d tracks  looping=%v\n",
			name, clip.Duration(), clip.Len(), clip.Looping())
	}
	return nil
}

func cmdBake(manager *assets.Manager, args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: animtool bake <file>")
		os.Exit(1)
	}

	start := time.Now()
	mdl, err := loadModel(manager, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Baked %s in %v at %d fps\n", mdl.Name(), time.Since(start).Round(time.Millisecond), anim.FrameRate)
	for _, name := range mdl.ClipNames() {
		b := mdl.Baked(name)
		fmt.Printf("  %-24s %6d frames  %8.1f KB\n", name, b.FrameCount(), float64(b.MemoryFootprint())/1024)
	}
	fmt.Printf("Total: %.2f MB\n", float64(mdl.MemoryFootprint())/(1024*1024))
	return nil
}

func cmdPlay(manager *assets.Manager, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	dt := fs.Float64("dt", 1.0/60, "Seconds per update")
	seconds := fs.Float64("t", 1, "Seconds to simulate")
	joint := fs.String("joint", "", "Joint to trace (default: root)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: animtool play [-dt s] [-t s] [-joint name] <file> <clip>")
		os.Exit(1)
	}

	mdl, err := loadModel(manager, fs.Arg(0))
	if err != nil {
		return err
	}
	inst, err := mdl.NewInstance(fs.Arg(1))
	if err != nil {
		return err
	}

	traced := 0
	if *joint != "" {
		idx, ok := mdl.Armature().JointIndex(*joint)
		if !ok {
			return fmt.Errorf("joint %q not found in %s", *joint, mdl.Name())
		}
		traced = idx
	}

	ticks, err := playTicks(*dt, *seconds)
	if err != nil {
		return err
	}
	step := float32(*dt)
	fmt.Printf("Playing %s/%s, joint %s, dt=%gs, speed=%g\n",
		mdl.Name(), inst.Clip(), mdl.Armature().JointName(traced), *dt, inst.Player().Speed())
	for tick := range ticks {
		frame := inst.Player().FrameIndex()
		if !inst.Update(step) {
			continue
		}
		pos := inst.Palette()[traced].Column(3)
		fmt.Printf("  t=%7.3fs frame %4d  pos (%8.4f, %8.4f, %8.4f)\n",
			float32(tick+1)*step, frame, pos.X, pos.Y, pos.Z)
	}
	return nil
}

// playTicks returns how many updates of dt seconds cover the given time.
func playTicks(dt, seconds float64) (int, error) {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return 0, fmt.Errorf("-dt must be a positive number of seconds, got %g", dt)
	}
	if !(seconds >= 0) || math.IsInf(seconds, 1) {
		return 0, fmt.Errorf("-t must be a non-negative number of seconds, got %g", seconds)
	}
	return int(seconds / dt), nil
}

func cmdDump(manager *assets.Manager, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	frame := fs.Int("frame", 0, "Baked frame to dump")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: animtool dump [-frame n] <file> [clip]")
		os.Exit(1)
	}

	mdl, err := loadModel(manager, fs.Arg(0))
	if err != nil {
		return err
	}

	dumper := spew.NewDefaultConfig()
	dumper.DisableCapacities = true
	dumper.DisablePointerAddresses = true

	if fs.NArg() < 2 {
		fmt.Println(dumper.Sdump(mdl.Armature().JointNames(), mdl.Armature().RestPose()))
		return nil
	}

	baked := mdl.Baked(fs.Arg(1))
	if baked == nil {
		return fmt.Errorf("clip %q not found in %s", fs.Arg(1), mdl.Name())
	}
	palette := baked.PoseAt(*frame)
	if palette == nil {
		return fmt.Errorf("frame %d out of range [0, %d)", *frame, baked.FrameCount())
	}
	fmt.Printf("%s frame %d at %.4fs\n", baked.Name(), *frame, baked.FrameTime(*frame))
	fmt.Println(dumper.Sdump(palette))
	return nil
}
