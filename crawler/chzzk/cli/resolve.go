package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"chzzk-vod-resolver-go/backend"
	"chzzk-vod-resolver-go/crawler/chzzk/core"
	"chzzk-vod-resolver-go/crawler/chzzk/model"
	"chzzk-vod-resolver-go/crawler/chzzk/store"
	"chzzk-vod-resolver-go/crawler/chzzk/util"
	"chzzk-vod-resolver-go/logger"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const batchOutputFile = "vods_info.csv"

func init() {
	resolveCmd.Flags().StringVarP(&opts.Input, "input", "i", "", "从 .txt 文件读取 URL 或 id")
	resolveCmd.Flags().StringVarP(&opts.Output, "output", "o", "", "输出文件名，JSON 模式下为空时输出到终端")
	resolveCmd.Flags().StringVarP(&opts.ImageDir, "image-dir", "d", "", "缩略图存储目录")
	resolveCmd.Flags().BoolVarP(&opts.NoThumbnail, "no-thumbnail", "n", false, "不下载缩略图")
	resolveCmd.Flags().BoolVar(&opts.JSON, "json", false, "以 JSON 输出")
	resolveCmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "并发数")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:     "resolve [url|id]...",
	Short:   "解析一个或多个回放",
	Example: "  chzzk-vod resolve https://chzzk.naver.com/video/1808\n  chzzk-vod resolve -i list.txt --json -o out.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.GetLogger()

		refs := args
		if opts.Input != "" {
			fromFile, err := util.ReadVideoRefsFromFile(opts.Input)
			if err != nil {
				return errors.Wrap(err, "无法打开输入文件")
			}
			refs = append(refs, fromFile...)
		}

		ids := collectVideoIDs(refs, log)
		if len(ids) == 0 {
			return errors.New("未找到有效的回放地址或 id")
		}
		log.Infof("✅ 找到 %d 个回放需要处理", len(ids))

		cfg := appConfig
		if !cfg.Crawler.NoThumbnail {
			if err := util.CreateDirIfNotExist(cfg.ImageStorageDir); err != nil {
				return errors.Wrap(err, "创建图片目录失败")
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc := backend.NewResolveService(cfg, log)
		results := svc.ResolveBatch(ctx, ids)

		resolved := make([]*model.Descriptor, 0, len(results))
		for _, r := range results {
			if r.Err != nil {
				re := backend.Classify(r.Err)
				logger.WithVideo(log, r.VideoID).WithField("type", re.Type).Errorf("❌ %s: %v", backend.GetErrorTypeName(re.Type), r.Err)
				continue
			}
			resolved = append(resolved, r.Descriptor)
		}
		if len(resolved) == 0 {
			return errors.Errorf("%d 个回放全部解析失败", len(ids))
		}
		svc.AttachThumbnails(resolved)

		if err := saveResults(cmd.OutOrStdout(), resolved, cfg.Crawler.OutputDir); err != nil {
			return err
		}
		if !opts.JSON {
			printSummary(cmd.OutOrStdout(), resolved)
		}
		if failed := len(ids) - len(resolved); failed > 0 {
			log.Warnf("⚠️ %d 个回放解析失败", failed)
		}
		// 中断时已保存部分结果，但退出码非 0
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "解析被中断，已完成 %d/%d", len(resolved), len(ids))
		}
		return nil
	},
}

// collectVideoIDs 统一成数字 id 并按首次出现顺序去重
func collectVideoIDs(refs []string, log logrus.FieldLogger) []string {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := core.NormalizeRef(ref)
		if err != nil {
			log.Warnf("⚠️ 跳过无法识别的地址: %s", ref)
			continue
		}
		ids = append(ids, id)
	}
	return lo.Uniq(ids)
}

// saveResults 未指定 -o 时写入配置的输出目录
func saveResults(stdout io.Writer, resolved []*model.Descriptor, outputDir string) error {
	log := logger.GetLogger()

	if opts.JSON {
		if opts.Output == "" {
			return store.WriteJSON(stdout, resolved)
		}
		if err := store.WriteJSONFile(resolved, opts.Output); err != nil {
			return errors.Wrap(err, "保存结果失败")
		}
		log.Infof("✅ 结果已保存到: %s", opts.Output)
		return nil
	}

	outputFile := opts.Output
	if outputFile == "" {
		outputFile = lo.Ternary(len(resolved) == 1, store.GenerateOutputFileName(resolved[0]), batchOutputFile)
		if outputDir != "" {
			outputFile = filepath.Join(outputDir, outputFile)
		}
	}
	if err := store.WriteResultsToFile(resolved, outputFile); err != nil {
		return errors.Wrap(err, "保存结果失败")
	}
	log.Infof("✅ %d 个回放信息已保存到: %s", len(resolved), outputFile)
	return nil
}

func printSummary(w io.Writer, resolved []*model.Descriptor) {
	for _, d := range resolved {
		fmt.Fprintf(w, "[%s] %s\n", d.ID, d.TitleOrEmpty())
		if d.Uploader != nil {
			fmt.Fprintf(w, "  频道: %s\n", *d.Uploader)
		}
		if d.Timestamp != nil {
			fmt.Fprintf(w, "  发布: %s\n", humanize.Time(time.Unix(*d.Timestamp, 0)))
		}
		if d.Duration != nil {
			fmt.Fprintf(w, "  时长: %s\n", time.Duration(*d.Duration)*time.Second)
		}
		if d.ViewCount != nil {
			fmt.Fprintf(w, "  播放: %s\n", humanize.Comma(*d.ViewCount))
		}
		if d.AgeLimit > 0 {
			fmt.Fprintf(w, "  年龄限制: %d+\n", d.AgeLimit)
		}
		fmt.Fprintf(w, "  格式: %d 个\n", len(d.Formats))
		for _, f := range d.Formats {
			fmt.Fprintf(w, "    %-12s %-10s %s\n", f.FormatID, formatResolution(f), formatBitrate(f.TBR))
		}
	}
}

func formatResolution(f model.Format) string {
	if f.Width > 0 && f.Height > 0 {
		return fmt.Sprintf("%dx%d", f.Width, f.Height)
	}
	if f.VCodec == "none" {
		return "audio"
	}
	return "-"
}

// tbr 单位为 kbps
func formatBitrate(tbr float64) string {
	if tbr <= 0 {
		return ""
	}
	return humanize.SI(tbr*1000, "bps")
}
