package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"chzzk-vod-resolver-go/crawler/chzzk/model"
	"chzzk-vod-resolver-go/logger"

	_ "modernc.org/sqlite"
)

// 全局数据库连接
var db *sql.DB

// Vod 列表页使用的精简记录
type Vod struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Uploader    string `json:"uploader"`
	Thumbnail   string `json:"thumbnail"`
	Duration    int64  `json:"duration"`
	AgeLimit    int    `json:"age_limit"`
	FormatCount int    `json:"format_count"`
	ResolvedAt  string `json:"resolved_at"`
}

// InitDB 初始化数据库连接
func InitDB(dbPath string) error {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	var err error
	db, err = sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("打开数据库失败: %w", err)
	}
	// :memory: 每个连接是独立的库
	db.SetMaxOpenConns(1)

	pragmaStmts := []string{
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA temp_store = MEMORY;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, stmt := range pragmaStmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("设置PRAGMA失败: %w", err)
		}
	}

	if err := createTables(); err != nil {
		return fmt.Errorf("创建表失败: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("数据库连接测试失败: %w", err)
	}

	logger.GetLogger().Infof("数据库初始化成功: %s", dbPath)
	return nil
}

// CloseDB 关闭数据库连接
func CloseDB() {
	if db != nil {
		db.Close()
		db = nil
		logger.GetLogger().Info("数据库连接已关闭")
	}
}

func createTables() error {
	vodTableSQL := `
	CREATE TABLE IF NOT EXISTS vod_info (
		video_id TEXT PRIMARY KEY,
		title TEXT,
		thumbnail TEXT,
		local_thumbnail TEXT,
		timestamp INTEGER,
		upload_date TEXT,
		uploader TEXT,
		uploader_id TEXT,
		duration INTEGER,
		view_count INTEGER,
		age_limit INTEGER NOT NULL DEFAULT 0,
		webpage_url TEXT NOT NULL,
		resolved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_vod_uploader ON vod_info(uploader_id);`

	if _, err := db.Exec(vodTableSQL); err != nil {
		return fmt.Errorf("创建视频表失败: %w", err)
	}

	formatTableSQL := `
	CREATE TABLE IF NOT EXISTS vod_formats (
		video_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		format_id TEXT NOT NULL,
		url TEXT NOT NULL,
		manifest_url TEXT,
		ext TEXT,
		protocol TEXT,
		mime_type TEXT,
		width INTEGER,
		height INTEGER,
		fps REAL,
		tbr REAL,
		vcodec TEXT,
		acodec TEXT,
		language TEXT,
		PRIMARY KEY (video_id, position),
		FOREIGN KEY (video_id) REFERENCES vod_info(video_id) ON DELETE CASCADE
	);`

	if _, err := db.Exec(formatTableSQL); err != nil {
		return fmt.Errorf("创建格式表失败: %w", err)
	}

	logger.GetLogger().Debug("数据库表创建成功")
	return nil
}

// SaveVod 保存解析结果，同一 id 覆盖旧记录和格式
func SaveVod(d *model.Descriptor) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM vod_formats WHERE video_id = ?`, d.ID); err != nil {
		return fmt.Errorf("清理旧格式失败: %w", err)
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO vod_info
		(video_id, title, thumbnail, local_thumbnail, timestamp, upload_date,
		 uploader, uploader_id, duration, view_count, age_limit, webpage_url, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		d.ID, optString(d.Title), optString(d.Thumbnail), d.LocalThumbnail, optInt(d.Timestamp),
		optString(d.UploadDate), optString(d.Uploader), optString(d.UploaderID),
		optInt(d.Duration), optInt(d.ViewCount), d.AgeLimit, d.WebpageURL,
	)
	if err != nil {
		return fmt.Errorf("保存视频信息失败: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO vod_formats
		(video_id, position, format_id, url, manifest_url, ext, protocol, mime_type,
		 width, height, fps, tbr, vcodec, acodec, language)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("准备格式语句失败: %w", err)
	}
	defer stmt.Close()

	for i, f := range d.Formats {
		if _, err = stmt.Exec(d.ID, i, f.FormatID, f.URL, f.ManifestURL, f.Ext, f.Protocol, f.MimeType,
			f.Width, f.Height, f.FPS, f.TBR, f.VCodec, f.ACodec, f.Language); err != nil {
			return fmt.Errorf("保存格式失败 (%s): %w", f.FormatID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// GetVodByID 获取完整记录，不存在时返回 nil, nil
func GetVodByID(videoID string) (*model.Descriptor, error) {
	var (
		d                                    model.Descriptor
		title, thumbnail, uploadDate         sql.NullString
		uploader, uploaderID, localThumbnail sql.NullString
		timestamp, duration, viewCount       sql.NullInt64
	)
	err := db.QueryRow(`
		SELECT video_id, title, thumbnail, local_thumbnail, timestamp, upload_date,
		       uploader, uploader_id, duration, view_count, age_limit, webpage_url
		FROM vod_info WHERE video_id = ?`, videoID).Scan(
		&d.ID, &title, &thumbnail, &localThumbnail, &timestamp, &uploadDate,
		&uploader, &uploaderID, &duration, &viewCount, &d.AgeLimit, &d.WebpageURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询视频失败: %w", err)
	}

	d.Title = nullString(title)
	d.Thumbnail = nullString(thumbnail)
	d.LocalThumbnail = localThumbnail.String
	d.Timestamp = nullInt(timestamp)
	d.UploadDate = nullString(uploadDate)
	d.Uploader = nullString(uploader)
	d.UploaderID = nullString(uploaderID)
	d.Duration = nullInt(duration)
	d.ViewCount = nullInt(viewCount)

	formats, err := GetVodFormats(videoID)
	if err != nil {
		return nil, err
	}
	d.Formats = formats
	return &d, nil
}

// GetVodFormats 按保存顺序返回格式列表
func GetVodFormats(videoID string) ([]model.Format, error) {
	rows, err := db.Query(`
		SELECT format_id, url, manifest_url, ext, protocol, mime_type,
		       width, height, fps, tbr, vcodec, acodec, language
		FROM vod_formats WHERE video_id = ? ORDER BY position`, videoID)
	if err != nil {
		return nil, fmt.Errorf("查询格式失败: %w", err)
	}
	defer rows.Close()

	formats := []model.Format{}
	for rows.Next() {
		var f model.Format
		if err := rows.Scan(&f.FormatID, &f.URL, &f.ManifestURL, &f.Ext, &f.Protocol, &f.MimeType,
			&f.Width, &f.Height, &f.FPS, &f.TBR, &f.VCodec, &f.ACodec, &f.Language); err != nil {
			return nil, fmt.Errorf("扫描格式行失败: %w", err)
		}
		formats = append(formats, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历格式行失败: %w", err)
	}
	return formats, nil
}

// GetVodsPaginated 分页获取，searchTerm 匹配标题或频道名
func GetVodsPaginated(page, perPage int, searchTerm string) ([]Vod, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	offset := (page - 1) * perPage
	var total int

	where := ""
	var args []interface{}
	if searchTerm != "" {
		where = " WHERE v.title LIKE ? OR v.uploader LIKE ?"
		args = append(args, "%"+searchTerm+"%", "%"+searchTerm+"%")
	}

	if err := db.QueryRow("SELECT COUNT(*) FROM vod_info v"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("获取视频总数失败: %w", err)
	}

	query := `
		SELECT v.video_id, IFNULL(v.title, ''), IFNULL(v.uploader, ''),
		       IFNULL(NULLIF(v.local_thumbnail, ''), IFNULL(v.thumbnail, '')),
		       IFNULL(v.duration, 0), v.age_limit,
		       (SELECT COUNT(*) FROM vod_formats f WHERE f.video_id = v.video_id),
		       v.resolved_at
		FROM vod_info v` + where + " ORDER BY v.resolved_at DESC, v.video_id DESC LIMIT ? OFFSET ?"
	args = append(args, perPage, offset)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询视频失败: %w", err)
	}
	defer rows.Close()

	vods := []Vod{}
	for rows.Next() {
		var v Vod
		if err := rows.Scan(&v.ID, &v.Title, &v.Uploader, &v.Thumbnail, &v.Duration,
			&v.AgeLimit, &v.FormatCount, &v.ResolvedAt); err != nil {
			return nil, 0, fmt.Errorf("扫描视频行失败: %w", err)
		}
		vods = append(vods, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("遍历视频行失败: %w", err)
	}

	return vods, total, nil
}

// DeleteVod 删除记录，格式随外键级联删除
func DeleteVod(videoID string) (bool, error) {
	res, err := db.Exec(`DELETE FROM vod_info WHERE video_id = ?`, videoID)
	if err != nil {
		return false, fmt.Errorf("删除视频失败: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// optString/optInt 缺失字段写入 NULL
func optString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func optInt(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}
