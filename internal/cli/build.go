package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/contextmd/internal/builder"
	"github.com/temirov/contextmd/internal/config"
	"github.com/temirov/contextmd/internal/notify"
	"github.com/temirov/contextmd/internal/services/clipboard"
	"github.com/temirov/contextmd/internal/tokenizer"
	"github.com/temirov/contextmd/internal/utils"
)

const (
	errorOutputWithManyDirectoriesFormat = "--%s accepts a single directory, got %d"
	errorResolveDirectoryFormat          = "resolve directory %s: %w"
	errorNameOutputFormat                = "name output for %s: %w"
	errorBuildFormat                     = "build context for %s: %w"
	errorCopyFormat                      = "copy to clipboard: %w"
	clipboardCopiedMessage               = "Copied to clipboard."
	warningTokenCounterUnavailable       = "token estimate disabled"
)

// buildJob is one root directory and the document it is written to.
type buildJob struct {
	rootDirectory string
	outputPath    string
	report        builder.Report
	err           error
}

// runBuilds writes one document per directory. Builds run concurrently; outcomes are
// reported in argument order once every build has finished.
func (runner commandRunner) runBuilds(ctx context.Context, command *cobra.Command, directories []string, settings config.Settings) error {
	jobs, planError := runner.planJobs(utils.DeduplicateStrings(directories), settings)
	if planError != nil {
		return planError
	}

	logger := runner.dependencies.Logger
	reservedPaths := make([]string, 0, len(jobs))
	for _, job := range jobs {
		reservedPaths = append(reservedPaths, job.outputPath)
	}
	contextBuilder := builder.New(builder.Options{Logger: logger, ReservedPaths: reservedPaths})

	var group errgroup.Group
	group.SetLimit(runtime.GOMAXPROCS(0))
	for index := range jobs {
		job := &jobs[index]
		group.Go(func() error {
			if contextError := ctx.Err(); contextError != nil {
				job.err = contextError
				return nil
			}
			job.report, job.err = contextBuilder.Build(job.rootDirectory, job.outputPath)
			return nil
		})
	}
	_ = group.Wait()

	notifier := notify.NewConsole(command.OutOrStdout(), logger)
	counter, encodingName := runner.newTokenCounter(settings)

	var failures []error
	var documentPaths []string
	for _, job := range jobs {
		if job.err != nil {
			notifier.Failure(job.rootDirectory, job.err)
			failures = append(failures, fmt.Errorf(errorBuildFormat, job.rootDirectory, job.err))
			continue
		}
		notifier.Success(job.report, estimateTokens(counter, encodingName, job.report.OutputPath, notifier))
		documentPaths = append(documentPaths, job.report.OutputPath)
	}

	if settings.Clipboard && len(documentPaths) > 0 {
		if copyError := clipboard.CopyDocuments(runner.dependencies.Copier, documentPaths...); copyError != nil {
			failures = append(failures, fmt.Errorf(errorCopyFormat, copyError))
		} else {
			fmt.Fprintln(command.OutOrStdout(), clipboardCopiedMessage)
		}
	}
	return errors.Join(failures...)
}

// planJobs assigns an output path to every directory before any build starts,
// so auto-numbered names never collide between concurrent builds.
func (runner commandRunner) planJobs(directories []string, settings config.Settings) ([]buildJob, error) {
	explicitOutput := runner.options.outputPath
	if explicitOutput != "" {
		if len(directories) != 1 {
			return nil, fmt.Errorf(errorOutputWithManyDirectoriesFormat, outputFlagName, len(directories))
		}
		return []buildJob{{rootDirectory: directories[0], outputPath: explicitOutput}}, nil
	}

	sequence, sequenceError := runner.newSequence(settings.OutputDirectory)
	if sequenceError != nil {
		return nil, sequenceError
	}
	jobs := make([]buildJob, 0, len(directories))
	for _, directory := range directories {
		absoluteDirectory, absoluteError := filepath.Abs(directory)
		if absoluteError != nil {
			return nil, fmt.Errorf(errorResolveDirectoryFormat, directory, absoluteError)
		}
		outputPath, namingError := sequence.Next(absoluteDirectory)
		if namingError != nil {
			return nil, fmt.Errorf(errorNameOutputFormat, directory, namingError)
		}
		jobs = append(jobs, buildJob{rootDirectory: directory, outputPath: outputPath})
	}
	return jobs, nil
}

// newTokenCounter returns nil when estimates are disabled or the encoding cannot be loaded.
func (runner commandRunner) newTokenCounter(settings config.Settings) (tokenizer.Counter, string) {
	if !settings.TokensEnabled {
		return nil, ""
	}
	counter, encodingName, counterError := runner.dependencies.CounterFactory(settings.TokenModel)
	if counterError != nil {
		runner.dependencies.Logger.Warn(warningTokenCounterUnavailable, zap.String("model", settings.TokenModel), zap.Error(counterError))
		return nil, ""
	}
	return counter, encodingName
}

func estimateTokens(counter tokenizer.Counter, encodingName string, documentPath string, notifier *notify.Console) *notify.TokenEstimate {
	if counter == nil {
		return nil
	}
	tokens, countError := tokenizer.CountFile(counter, documentPath)
	if countError != nil {
		notifier.TokenEstimateFailure(documentPath, countError)
		return nil
	}
	return &notify.TokenEstimate{Encoding: encodingName, Tokens: tokens}
}
