package fetch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"chzzk-vod-resolver-go/crawler/chzzk/model"

	"github.com/sirupsen/logrus"
)

// IDResolver 由 core.Resolver 实现
type IDResolver interface {
	ResolveID(ctx context.Context, videoID string) (*model.Descriptor, error)
}

// Result 单个 id 的解析结果
type Result struct {
	VideoID    string
	Descriptor *model.Descriptor
	Err        error
}

// Pacing 每次请求前的随机延迟，防止请求过快
type Pacing struct {
	Base   time.Duration
	Jitter time.Duration
}

func (p Pacing) next() time.Duration {
	d := p.Base
	if p.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.Jitter)))
	}
	return d
}

func Worker(ctx context.Context, wg *sync.WaitGroup, resolver IDResolver,
	jobs <-chan string, results chan<- Result, pacing Pacing, log logrus.FieldLogger) {

	defer wg.Done()

	for videoID := range jobs {
		if delay := pacing.next(); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return
		}

		d, err := resolver.ResolveID(ctx, videoID)
		if err != nil {
			log.Warnf("⚠️ 视频 %s 解析失败: %v", videoID, err)
		} else {
			log.Infof("✅ 成功解析视频: %s - %s", d.ID, d.TitleOrEmpty())
		}
		results <- Result{VideoID: videoID, Descriptor: d, Err: err}
	}
}

// ResolveAll 用 workers 个协程并发解析，每个 id 恰好一个结果，按输入顺序返回
func ResolveAll(ctx context.Context, resolver IDResolver, videoIDs []string, workers int, pacing Pacing, log logrus.FieldLogger) []Result {
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan string, len(videoIDs))
	results := make(chan Result, len(videoIDs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go Worker(ctx, &wg, resolver, jobs, results, pacing, log)
	}

	for _, id := range videoIDs {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	byID := make(map[string]Result, len(videoIDs))
	for r := range results {
		byID[r.VideoID] = r
	}

	// 取消后未执行的 id 也要返回，错误为 ctx.Err()
	ordered := make([]Result, 0, len(videoIDs))
	for _, id := range videoIDs {
		r, ok := byID[id]
		if !ok {
			r = Result{VideoID: id, Err: ctx.Err()}
			log.Warnf("⚠️ 视频 %s 未解析: %v", id, r.Err)
		}
		ordered = append(ordered, r)
	}
	return ordered
}
