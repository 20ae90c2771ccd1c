package evaluate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bitbucket.org/airenas/depgo/internal/pkg/checkpoint"
	"bitbucket.org/airenas/depgo/internal/pkg/cmdapp"
	"bitbucket.org/airenas/depgo/internal/pkg/conll"
	"bitbucket.org/airenas/depgo/internal/pkg/parser"
	"bitbucket.org/airenas/depgo/internal/pkg/scorer/tf"
)

var appName = "DepGo Evaluate"

var rootCmd = &cobra.Command{
	Use:   "evaluate",
	Short: appName,
	Long:  `Command line tool to compute attachment accuracy on a labeled CoNLL file`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().StringP("input", "i", "", "Gold CoNLL file")
	rootCmd.PersistentFlags().StringP("model", "m", "", "Model checkpoint file")
	rootCmd.PersistentFlags().IntP("buckets", "", 0, "Bucket count for batching")
	rootCmd.PersistentFlags().IntP("budget", "", 0, "Max token count per batch")
	for _, f := range []string{"input", "model", "buckets", "budget"} {
		cmdapp.Config.BindPFlag(f, rootCmd.PersistentFlags().Lookup(f))
	}
}

//Execute starts the app
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)

	bundle, err := checkpoint.Load(cmdapp.Config.GetString("model"))
	cmdapp.CheckOrPanic(err, "Cannot load checkpoint")

	tfWrapper, err := tf.NewWrapper(cmdapp.Config.GetString("tf.url"),
		bundle.Config.ModelName, bundle.Config.ModelVersion)
	cmdapp.CheckOrPanic(err, "Cannot init tensorflow wrapper")

	p, err := parser.New(bundle, tfWrapper)
	cmdapp.CheckOrPanic(err, "Cannot init parser")

	sentences, err := conll.ReadFile(cmdapp.Config.GetString("input"))
	cmdapp.CheckOrPanic(err, "Cannot read input")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-cmdapp.NewSignalChannel()
		cancel()
	}()

	res, err := p.Evaluate(ctx, sentences, parser.Options{
		Buckets:  cmdapp.Config.GetInt("buckets"),
		Budget:   cmdapp.Config.GetInt("budget"),
		Progress: true,
	})
	cmdapp.CheckOrPanic(err, "Cannot evaluate")

	fmt.Printf("Tokens: %d\nUAS: %.4f\nLAS: %.4f\n", res.Total, res.UAS, res.LAS)
}
