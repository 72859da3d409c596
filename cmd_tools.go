package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/beka-birhanu/vinom-lab/config"
	"github.com/beka-birhanu/vinom-lab/game/maze"
	"github.com/beka-birhanu/vinom-lab/infrastruture/token"
	"github.com/spf13/cobra"
)

var (
	mazeFlags struct {
		seed int64
		size int
	}

	tokenFlags = struct {
		operator string
		ttl      time.Duration
	}{ttl: 24 * time.Hour}

	mazeCmd = &cobra.Command{
		Use:   "maze",
		Short: "Generate one grid and print it",
		RunE:  printMaze,
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the control routes",
		RunE:  issueToken,
	}
)

func printMaze(cmd *cobra.Command, _ []string) error {
	seed := mazeFlags.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	size := mazeFlags.size
	if size == 0 {
		size = maze.DefaultSize
	}

	gen, err := maze.NewGenerator(size, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}
	g := gen.Generate()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "seed=%d size=%d start=%v end=%v solution=%d cells\n", seed, g.Size(), g.Start(), g.End(), len(g.SolutionPath()))
	fmt.Fprint(out, g.String())
	return nil
}

func issueToken(cmd *cobra.Command, _ []string) error {
	tokenizer, err := token.NewJwtService(config.MustGetEnv("JWT_SECRET"), config.Envs.JWTIssuer)
	if err != nil {
		return err
	}

	tok, err := tokenizer.Generate(map[string]interface{}{"operator": tokenFlags.operator}, tokenFlags.ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
