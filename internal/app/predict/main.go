package predict

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"bitbucket.org/airenas/depgo/internal/pkg/checkpoint"
	"bitbucket.org/airenas/depgo/internal/pkg/cmdapp"
	"bitbucket.org/airenas/depgo/internal/pkg/conll"
	"bitbucket.org/airenas/depgo/internal/pkg/parser"
	"bitbucket.org/airenas/depgo/internal/pkg/scorer/tf"
)

var appName = "DepGo Predict"

var rootCmd = &cobra.Command{
	Use:   "predict",
	Short: appName,
	Long:  `Command line tool to parse CoNLL files with a dependency parsing model`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().StringP("input", "i", "", "Input CoNLL file")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file, stdout if empty")
	rootCmd.PersistentFlags().StringP("model", "m", "", "Model checkpoint file")
	rootCmd.PersistentFlags().IntP("buckets", "", 0, "Bucket count for batching")
	rootCmd.PersistentFlags().IntP("budget", "", 0, "Max token count per batch")
	rootCmd.PersistentFlags().BoolP("prob", "", false, "Output head probabilities")
	rootCmd.PersistentFlags().BoolP("tree", "", true, "Ensure well formed trees")
	rootCmd.PersistentFlags().BoolP("proj", "", false, "Ensure projective trees")
	for _, f := range []string{"input", "output", "model", "buckets", "budget", "prob", "tree", "proj"} {
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

	res, err := p.Predict(ctx, sentences, parser.Options{
		Buckets:  cmdapp.Config.GetInt("buckets"),
		Budget:   cmdapp.Config.GetInt("budget"),
		Prob:     cmdapp.Config.GetBool("prob"),
		Tree:     cmdapp.Config.GetBool("tree"),
		Proj:     cmdapp.Config.GetBool("proj"),
		Out:      cmdapp.Config.GetString("output"),
		Progress: true,
	})
	cmdapp.CheckOrPanic(err, "Cannot predict")

	if cmdapp.Config.GetString("output") == "" {
		cmdapp.CheckOrPanic(conll.Write(os.Stdout, res.Sentences), "Cannot write result")
	}
}
