// main.go - x8088mon: an interactive monitor for the core, in the
// subcommand-plus-raw-terminal shape the teacher's own tooling uses
// (cli.v2 flags/actions; golang.org/x/term raw mode for the step REPL).
//
// (c) 2024-2026 x8088 project contributors - GPLv3 or later

package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	cpu "github.com/x8088/core"
	"golang.org/x/term"
	cli "gopkg.in/urfave/cli.v2"
)

func main() {
	app := &cli.App{
		Name:    "x8088mon",
		Usage:   "interactive monitor for the 8088/8086/V20/V30 core",
		Version: "v0.1.0",
		Commands: []*cli.Command{
			runCommand(),
			traceCommand(),
		},
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "load a raw binary image and step interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Usage: "binary image to load at CS:IP reset vector"},
			&cli.StringFlag{Name: "cpu", Aliases: []string{"c"}, Value: "8088", Usage: "cpu variant: 8088, 8086, v20, v30"},
		},
		Action: func(c *cli.Context) error {
			return runInteractive(c.String("image"), parseCPUType(c.String("cpu")))
		},
	}
}

func traceCommand() *cli.Command {
	return &cli.Command{
		Name:  "trace",
		Usage: "run a fixed step count and dump a per-cycle text trace",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Usage: "binary image to load"},
			&cli.IntFlag{Name: "steps", Aliases: []string{"n"}, Value: 10, Usage: "instructions to execute"},
			&cli.StringFlag{Name: "cpu", Aliases: []string{"c"}, Value: "8088", Usage: "cpu variant: 8088, 8086, v20, v30"},
		},
		Action: func(c *cli.Context) error {
			return runTrace(c.String("image"), c.Int("steps"), parseCPUType(c.String("cpu")))
		},
	}
}

func parseCPUType(s string) cpu.CPUType {
	switch strings.ToLower(s) {
	case "8086":
		return cpu.I8086
	case "v20":
		return cpu.V20
	case "v30":
		return cpu.V30
	default:
		return cpu.I8088
	}
}

func loadCPU(imagePath string, ct cpu.CPUType) (*cpu.CPU, *flatBus, error) {
	bus := newFlatBus()
	c := cpu.New(ct, bus, nil)
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, nil, fmt.Errorf("x8088mon: %w", err)
		}
		bus.loadImage(cpu.Physical(c.GetSegment(cpu.CS), c.GetIP()), data)
	}
	return c, bus, nil
}

func runTrace(imagePath string, steps int, ct cpu.CPUType) error {
	c, _, err := loadCPU(imagePath, ct)
	if err != nil {
		return err
	}
	c.BeginTrace(cpu.NullValidator{})
	for i := 0; i < steps; i++ {
		res, _, err := c.Step()
		if err != nil {
			return err
		}
		if res == cpu.StepHalt {
			break
		}
	}
	c.EndTrace()
	return cpu.WriteText(os.Stdout, c.GetCycleStates())
}

// runInteractive puts stdin in raw mode and offers a single-keystroke
// step/trace/registers/quit REPL, in the same raw-mode-plus-restore
// pattern as the teacher's terminal host adapter.
func runInteractive(imagePath string, ct cpu.CPUType) error {
	c, _, err := loadCPU(imagePath, ct)
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return runBatchREPL(c, os.Stdin)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("x8088mon: failed to set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	fmt.Fprint(os.Stdout, "x8088mon: s=step t=trace-on r=registers q=quit\r\n")
	tracing := false
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if n == 0 || err != nil {
			return nil
		}
		switch buf[0] {
		case 'q', 'Q', 0x03:
			return nil
		case 's', 'S':
			res, cycles, err := c.Step()
			if err != nil {
				fmt.Fprintf(os.Stdout, "error: %v\r\n", err)
				continue
			}
			fmt.Fprintf(os.Stdout, "step: %d cycles, result=%d CS:IP=%04X:%04X\r\n",
				cycles, res, c.GetSegment(cpu.CS), c.GetIP())
		case 't', 'T':
			tracing = !tracing
			if tracing {
				c.BeginTrace(cpu.NullValidator{})
			} else {
				c.EndTrace()
				cpu.WriteText(os.Stdout, c.GetCycleStates())
			}
		case 'r', 'R':
			printRegisters(c)
		}
	}
}

// runBatchREPL drives the step (s), registers (r) and quit (q) commands
// from a non-tty (e.g. piped input in scripted use), reading
// newline-terminated commands instead of raw keystrokes; the trace toggle
// is not available here.
func runBatchREPL(c *cpu.CPU, in *os.File) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		switch strings.TrimSpace(sc.Text()) {
		case "q":
			return nil
		case "s":
			res, cycles, err := c.Step()
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("step: %d cycles, result=%d CS:IP=%04X:%04X\n",
				cycles, res, c.GetSegment(cpu.CS), c.GetIP())
		case "r":
			printRegisters(c)
		}
	}
	return sc.Err()
}

func printRegisters(c *cpu.CPU) {
	fmt.Printf("AX=%04X BX=%04X CX=%04X DX=%04X SP=%04X BP=%04X SI=%04X DI=%04X\r\n",
		c.GetRegister16(cpu.AX), c.GetRegister16(cpu.BX), c.GetRegister16(cpu.CX), c.GetRegister16(cpu.DX),
		c.GetRegister16(cpu.SP), c.GetRegister16(cpu.BP), c.GetRegister16(cpu.SI), c.GetRegister16(cpu.DI))
	fmt.Printf("ES=%04X CS=%04X SS=%04X DS=%04X IP=%04X FLAGS=%04X\r\n",
		c.GetSegment(cpu.ES), c.GetSegment(cpu.CS), c.GetSegment(cpu.SS), c.GetSegment(cpu.DS),
		c.GetIP(), c.GetFlags())
}
