package object

import (
	"fmt"
	"github.com/ValentinKolb/moray/cmd/util"
	"github.com/ValentinKolb/moray/lib/moray"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	benchCmd = &cobra.Command{
		Use:     "bench [bucket]",
		Short:   "Measures the latency of put, get and find against a bucket",
		Args:    cobra.ExactArgs(1),
		PreRunE: processBenchConfig,
		RunE:    runBench,
	}
	benchKeyPrefix = "__bench"
	benchThreads   = 10
	benchRequests  = 1000
	benchKeySpread = 100
	benchValueSize = 64
	benchSkip      = make([]string, 0)
)

func init() {
	// add flags
	key := "threads"
	benchCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines issuing requests"))
	key = "requests"
	benchCmd.Flags().Int(key, 1000, util.WrapString("Number of requests per benchmark"))
	key = "keys"
	benchCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use"))
	key = "value-size"
	benchCmd.Flags().Int(key, 64, util.WrapString("Size of the string stored in every object (in bytes)"))
	key = "skip"
	benchCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,find)"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	benchThreads = viper.GetInt("threads")
	benchRequests = viper.GetInt("requests")
	benchKeySpread = viper.GetInt("keys")
	benchValueSize = viper.GetInt("value-size")
	benchSkip = strings.Split(viper.GetString("skip"), ",")

	if benchThreads < 1 || benchRequests < 1 || benchKeySpread < 1 {
		return fmt.Errorf("threads, requests and keys must be positive")
	}
	return nil
}

func runBench(_ *cobra.Command, args []string) error {
	bucket := args[0]

	fmt.Println("Benchmark for moray services")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Requests: %d, Keys: %d\n", benchThreads, benchRequests, benchKeySpread)
	fmt.Println()

	// The bucket is created if needed and only removed again if it was created here
	config := moray.BucketConfig{Index: moray.IndexSchema{"n": {Type: moray.IndexTypeNumber}}}
	err := morayClient.CreateBucket(bucket, config, moray.BucketOptions{})
	switch {
	case err == nil:
		defer func() {
			if err := morayClient.DeleteBucket(bucket, moray.BucketOptions{}); err != nil {
				fmt.Printf("failed to delete bucket %s: %v\n", bucket, err)
			}
		}()
	case common.IsRemoteCode(err, common.ErrCodeBucketConflict):
	default:
		return err
	}

	value := strings.Repeat("x", benchValueSize)

	runBenchmark("put", func(i int) error {
		return morayClient.PutObject(bucket, benchKey(i), map[string]interface{}{"n": i % benchKeySpread, "v": value},
			moray.ObjectOptions{}, nil)
	})

	runBenchmark("get", func(i int) error {
		return morayClient.GetObject(bucket, benchKey(i), moray.ObjectOptions{}, nil)
	})

	runBenchmark("find", func(i int) error {
		return morayClient.FindObjects(bucket, fmt.Sprintf("(n>=%d)", i%benchKeySpread),
			moray.ObjectOptions{Limit: 10, NoCount: true}, nil)
	})

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	for _, skip := range benchSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

func benchKey(i int) string {
	return fmt.Sprintf("%s-%d", benchKeyPrefix, i%benchKeySpread)
}

// runBenchmark calls op benchRequests times from benchThreads goroutines and prints the latency distribution
func runBenchmark(test string, op func(i int) error) {
	if shouldSkip(test) {
		fmt.Printf("%-8sskipped\n", test)
		return
	}

	timer := metrics.NewTimer()
	var next, failed atomic.Int64
	var wg sync.WaitGroup

	start := time.Now()
	for t := 0; t < benchThreads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= benchRequests {
					return
				}
				callStart := time.Now()
				if err := op(i); err != nil {
					failed.Add(1)
					fmt.Printf("(%s) - request %d failed: %v\n", test, i, err)
					continue
				}
				timer.UpdateSince(callStart)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	printResult(test, timer, failed.Load(), elapsed)
}

// printResult prints the result of a benchmark in a formatted way
func printResult(test string, timer metrics.Timer, failed int64, elapsed time.Duration) {
	ps := timer.Percentiles([]float64{0.5, 0.99})
	opsPerSec := float64(timer.Count()) / elapsed.Seconds()

	fmt.Printf("%-8s%d ok, %d failed\tmean %s\tp50 %s\tp99 %s\tmax %s\t%.0f ops/sec\n",
		test,
		timer.Count(),
		failed,
		time.Duration(timer.Mean()),
		time.Duration(ps[0]),
		time.Duration(ps[1]),
		time.Duration(timer.Max()),
		opsPerSec,
	)
}
