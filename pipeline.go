package barrier

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Result is the outcome of converting one stage barrier image
type Result struct {
	Input  string
	Output string
	Err    error
}

// BatchError lists every failed conversion from a batch
type BatchError struct {
	Failures []Result
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Err.Error())
	}
	return fmt.Sprintf("%d of the stages failed to convert: %s", len(e.Failures), strings.Join(msgs, "; "))
}

type job struct {
	input  string
	output string
}

func (c *Converter) findStages(ctx context.Context, input, output string) (<-chan job, <-chan error) {
	out := make(chan job)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)

		// Sorted by filename
		files, err := ioutil.ReadDir(input)
		if err != nil {
			errc <- err
			return
		}

		for _, file := range files {
			// Ignore anything that isn't a normal file
			if !file.Mode().IsRegular() {
				continue
			}

			name, ok := OutputName(file.Name())
			if !ok {
				continue
			}

			select {
			case out <- job{filepath.Join(input, file.Name()), filepath.Join(output, name)}:
			case <-ctx.Done():
				errc <- errors.New("batch cancelled")
				return
			}
		}
	}()
	return out, errc
}

func (c *Converter) stageWorker(ctx context.Context, in <-chan job, o Options) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		for j := range in {
			r := Result{
				Input:  j.input,
				Output: j.output,
				Err:    c.Convert(j.input, j.output, o),
			}
			if r.Err != nil {
				c.logger.Printf("Failed to convert %s: %s\n", j.input, r.Err)
			}
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// mergeResults fans the worker channels into one, closed once every worker
// has finished
func mergeResults(cs ...<-chan Result) <-chan Result {
	var wg sync.WaitGroup
	out := make(chan Result, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan Result) {
			for r := range c {
				out <- r
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Batch converts every stage-*_barriers.png image in the input directory to
// a stage-*.h file in the output directory using the given number of
// workers. Each image is converted independently; a failure doesn't stop the
// others. The results are returned sorted by input filename and if any
// conversion failed the error is a *BatchError.
func (c *Converter) Batch(input, output string, workers int, o Options) ([]Result, error) {
	in, err := filepath.Abs(input)
	if err != nil {
		return nil, err
	}

	out, err := filepath.Abs(output)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(in)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("not a directory")
	}

	if err := os.MkdirAll(out, 0755); err != nil {
		return nil, err
	}

	if workers < 1 {
		workers = 1
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	jobs, errc := c.findStages(ctx, in, out)

	var resultList []<-chan Result
	for i := 0; i < workers; i++ {
		resultList = append(resultList, c.stageWorker(ctx, jobs, o))
	}

	var results []Result
	for r := range mergeResults(resultList...) {
		results = append(results, r)
	}

	if err := <-errc; err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Input < results[j].Input })

	var failures []Result
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, r)
		}
	}
	if len(failures) > 0 {
		return results, &BatchError{Failures: failures}
	}

	return results, nil
}
