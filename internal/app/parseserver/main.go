package parseserver

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"bitbucket.org/airenas/depgo/internal/pkg/checkpoint"
	"bitbucket.org/airenas/depgo/internal/pkg/cmdapp"
	"bitbucket.org/airenas/depgo/internal/pkg/metrics"
	"bitbucket.org/airenas/depgo/internal/pkg/parser"
	"bitbucket.org/airenas/depgo/internal/pkg/scorer/tf"
)

var appName = "DepGo Parse Service"

var rootCmd = &cobra.Command{
	Use:   "parseService",
	Short: appName,
	Long:  `HTTP server to provide dependency parsing`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8000, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8080)
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)

	data := &ServiceData{}
	err := initMetrics(data)
	cmdapp.CheckOrPanic(err, "Can't init metrics")

	path := cmdapp.Config.GetString("model.path")
	bundle, err := checkpoint.Load(path)
	cmdapp.CheckOrPanic(err, "Cannot load checkpoint")

	tfWrapper, err := tf.NewWrapper(cmdapp.Config.GetString("tf.url"),
		bundle.Config.ModelName, bundle.Config.ModelVersion)
	cmdapp.CheckOrPanic(err, "Cannot init tensorflow wrapper")

	data.health = healthcheck.NewHandler()
	data.health.AddLivenessCheck("tensorflow", healthcheck.Async(tfWrapper.Healthy, 10*time.Second))

	p, err := parser.New(bundle, tfWrapper)
	cmdapp.CheckOrPanic(err, "Cannot init parser")
	data.SetParser(p)
	data.Tree = bundle.Config.Tree
	data.Proj = bundle.Config.Proj

	closeWatcher, err := watchCheckpoint(data, path, tfWrapper)
	cmdapp.CheckOrPanic(err, "Cannot init checkpoint watcher")
	defer func() { cmdapp.LogIf(closeWatcher()) }()

	data.Port = cmdapp.Config.GetInt("port")

	err = StartWebServer(data)
	cmdapp.CheckOrPanic(err, "")
}

func initMetrics(data *ServiceData) error {
	namespace := "parse_service"
	data.metrics.responseDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_durations_seconds",
			Help:      "Request latency distributions.",
		}, nil)
	if err := metrics.Register(data.metrics.responseDur); err != nil {
		return err
	}
	data.metrics.sentCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parsed_sentences_total",
			Help:      "Parsed sentence count.",
		})
	return metrics.Register(data.metrics.sentCount)
}

//watchCheckpoint reloads the model bundle when the checkpoint file changes
func watchCheckpoint(data *ServiceData, path string, tfWrapper *tf.Wrapper) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	go func() {
		for event := range watcher.Events {
			name, err := filepath.Abs(event.Name)
			if err != nil || name != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cmdapp.Log.Infof("Checkpoint changed, reloading %s", path)
			bundle, err := checkpoint.Load(path)
			if err != nil {
				cmdapp.Log.Error("Cannot reload checkpoint. ", err)
				continue
			}
			p, err := parser.New(bundle, tfWrapper)
			if err != nil {
				cmdapp.Log.Error("Cannot init parser. ", err)
				continue
			}
			data.SetParser(p)
			cmdapp.Log.Info("Checkpoint reloaded")
		}
	}()
	return watcher.Close, nil
}
