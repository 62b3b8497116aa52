// inptool is a CLI utility for inspecting .inp puppet files.
package main

import (
	"fmt"
	"os"

	"github.com/phanxgames/bunraku"
	"github.com/phanxgames/bunraku/inp"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "tree":
		cmdTree(args)
	case "params":
		cmdParams(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`inptool - .inp puppet file utility

Usage:
  inptool <command> <file.inp>

Commands:
  info <file.inp>     Show puppet metadata and content counts
  tree <file.inp>     Print the node tree
  params <file.inp>   List parameters with ranges and binding counts

Examples:
  inptool info model.inp
  inptool tree model.inp`)
}

func load(args []string, usage string) *inp.Model {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	model, err := inp.LoadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return model
}

func cmdInfo(args []string) {
	model := load(args, "Usage: inptool info <file.inp>")
	p := model.Puppet

	parts, composites, masks, physics := 0, 0, 0, 0
	for i := 0; i < p.NodeCount(); i++ {
		n := p.Node(i)
		switch n.Type {
		case bunraku.NodeTypePart:
			parts++
		case bunraku.NodeTypeComposite:
			composites++
		case bunraku.NodeTypeMask:
			masks++
		}
		if n.Physics != nil {
			physics++
		}
	}

	fmt.Printf("Name:       %s\n", p.Meta.Name)
	fmt.Printf("Version:    %s\n", p.Meta.Version)
	fmt.Printf("Artist:     %s\n", p.Meta.Artist)
	fmt.Printf("Rigger:     %s\n", p.Meta.Rigger)
	fmt.Printf("Copyright:  %s\n", p.Meta.Copyright)
	fmt.Printf("Nodes:      %d (%d parts, %d composites, %d masks)\n",
		p.NodeCount(), parts, composites, masks)
	fmt.Printf("Physics:    %d nodes\n", physics)
	fmt.Printf("Parameters: %d\n", len(p.Parameters()))
	fmt.Printf("Textures:   %d\n", len(model.Textures))
	for i, tex := range model.Textures {
		fmt.Printf("  [%d] %s, %d bytes\n", i, tex.Format, len(tex.Data))
	}
}

func cmdTree(args []string) {
	model := load(args, "Usage: inptool tree <file.inp>")
	printNode(model.Puppet, model.Puppet.Root(), 0)
}

func printNode(p *bunraku.Puppet, idx, indent int) {
	n := p.Node(idx)
	for i := 0; i < indent; i++ {
		fmt.Print("  ")
	}
	fmt.Printf("- [%s] %s", n.Type, n.Name)
	if n.Physics != nil {
		fmt.Print(" (physics)")
	}
	fmt.Println()
	for _, c := range n.Children {
		printNode(p, c, indent+1)
	}
}

func cmdParams(args []string) {
	model := load(args, "Usage: inptool params <file.inp>")
	for i := range model.Puppet.Parameters() {
		param := &model.Puppet.Parameters()[i]
		if param.IsVec2 {
			fmt.Printf("%-24s 2D  x:[%g, %g] y:[%g, %g]  %d bindings\n",
				param.Name, param.Min.X, param.Max.X, param.Min.Y, param.Max.Y, len(param.Bindings))
		} else {
			fmt.Printf("%-24s 1D  [%g, %g]  %d bindings\n",
				param.Name, param.Min.X, param.Max.X, len(param.Bindings))
		}
	}
}
