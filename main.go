package main

import (
	"os"

	"github.com/beka-birhanu/vinom-lab/config"
	logger "github.com/beka-birhanu/vinom-lab/infrastruture/log"
	general_i "github.com/beka-birhanu/vinom-lab/interfaces/general"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	appLogger general_i.Logger

	rootCmd = &cobra.Command{
		Use:           "vinom-lab",
		Short:         "Virtual navigation environment for reinforcement-learning agents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			gin.SetMode(config.Envs.GinMode)
		},
	}
)

func init() {
	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)

	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runFlags.addr, "addr", config.Envs.BridgeAddr, "Agent address, e.g. ws://localhost:8765. Empty runs without an agent")
	runCmd.Flags().IntVar(&runFlags.fps, "fps", config.Envs.FrameRate, "Simulation steps per second")
	runCmd.Flags().StringVar(&runFlags.mode, "mode", config.Envs.TaskMode, "Environment layout: corridor or maze")
	runCmd.Flags().Int64Var(&runFlags.seed, "seed", config.Envs.MazeSeed, "Seed for grids and trial draws. Zero seeds from the clock")
	runCmd.Flags().BoolVar(&runFlags.autoReset, "auto-reset", config.Envs.AutoReset, "Start a new episode right after every terminal outcome")

	rootCmd.AddCommand(mazeCmd)
	mazeCmd.Flags().Int64Var(&mazeFlags.seed, "seed", 0, "Generator seed. Zero seeds from the clock")
	mazeCmd.Flags().IntVar(&mazeFlags.size, "size", 0, "Grid size. Zero uses the default")

	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenFlags.operator, "operator", "operator", "Operator name carried in the token")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", tokenFlags.ttl, "Token lifetime")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		appLogger.Error(err.Error())
		os.Exit(1)
	}
}
