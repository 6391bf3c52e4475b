// capsulemaker generates capsule meshes and writes them as CMSH or OBJ files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "generate", "gen":
		err = cmdGenerate(args)
	case "flatten":
		err = cmdFlatten(args)
	case "smooth":
		err = cmdSmooth(args)
	case "info":
		err = cmdInfo(args)
	case "uvmap":
		err = cmdUVMap(args)
	case "batch":
		err = cmdBatch(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`capsulemaker - capsule mesh generator

Usage:
  capsulemaker <command> [options]

Commands:
  generate [flags]                   Generate a capsule and write it to -out
  flatten [flags] <in.cmsh> <out>    Convert a mesh to flat shading (.cmsh or .obj)
  smooth [flags] <in.cmsh> <out>     Average normals of vertices sharing a position
  info <file.cmsh>                   Show mesh information and topology
  uvmap [flags] <out.png|webp|tga>   Render the UV layout of a capsule
  batch [flags] <presets.yaml>       Generate every preset of a batch file

Common flags:
  -config path        Config file (default ./capsulemaker.yaml, then user config dir)
  -longitudes n       Longitude count (min 3)
  -latitudes n        Latitude count (min 2, rounded up to even)
  -rings n            Interior cylinder rings
  -depth f -radius f  Cylinder depth and hemisphere radius
  -profile name       UV profile: fixed, aspect or uniform
  -flat               Flat shading
  -out dir -name s -format cmsh|obj
  -debug              Debug logging

Examples:
  capsulemaker generate -longitudes 24 -latitudes 12 -profile uniform -out ./meshes
  capsulemaker flatten Capsule.cmsh Capsule_flat.obj
  capsulemaker uvmap -profile aspect -size 512 layout.png
  capsulemaker batch -workers 4 presets.yaml`)
}
