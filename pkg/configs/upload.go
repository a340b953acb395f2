// Package configs 管理应用程序配置，此文件包含直传与附件绑定核心的配置信息.
package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultSignedIDExpiresIn 签名ID默认有效期（秒）.
	// 令牌无状态、不可吊销，有效期必须保持短窗口.
	DefaultSignedIDExpiresIn = 3600
	// DefaultDirectUploadExpiresIn 直传URL默认有效期（秒）.
	DefaultDirectUploadExpiresIn = 300
	// DefaultSweepCron 孤儿Blob清扫任务默认执行计划.
	DefaultSweepCron = "*/30 * * * *"
	// DefaultSweepMinAgeHours 未绑定Blob进入清扫范围的最小年龄（小时）.
	DefaultSweepMinAgeHours = 24
)

// ServiceName 对象存储后端名称.
type ServiceName string

const (
	ServiceS3   ServiceName = "s3"
	ServiceDisk ServiceName = "disk"
)

// UploadConfig 直传/签名/分析核心配置.
type UploadConfig struct {
	// PrivateKey 签名私钥，必填且没有安全默认值，缺失时启动直接失败.
	PrivateKey string `mapstructure:"private_key"`
	// SignedIDExpiresIn 签名ID有效期（秒）.
	SignedIDExpiresIn int `mapstructure:"signed_id_expires_in" rule:"min=1"`
	// Service 当前启用的存储后端.
	Service ServiceName `mapstructure:"service" rule:"oneof=s3 disk"`
	// DirectUploadExpiresIn 直传URL有效期（秒）.
	DirectUploadExpiresIn int `mapstructure:"direct_upload_expires_in" rule:"min=1"`
	// DiskRoot disk 后端的根目录.
	DiskRoot string `mapstructure:"disk_root"`
	// AnalyzeAsync 为 true 且 MQ 可用时，附件绑定后通过事件触发分析；否则进程内执行.
	AnalyzeAsync bool `mapstructure:"analyze_async"`
	// Sweep 孤儿Blob清扫任务配置.
	Sweep SweepConfig `mapstructure:"sweep"`
}

// SweepConfig 清扫从未被绑定的Blob（直传后未兑换签名ID的遗留行）.
type SweepConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
	// MinAgeHours 只清扫创建时间早于该年龄的行，避免扫掉还在上传窗口内的Blob.
	MinAgeHours int `mapstructure:"min_age_hours" rule:"min=1"`
	// BatchSize 单轮最多处理的行数.
	BatchSize int `mapstructure:"batch_size" rule:"min=1"`
}

// SignedIDExpiry 返回签名ID有效期作为 time.Duration.
func (c *UploadConfig) SignedIDExpiry() time.Duration {
	return time.Duration(c.SignedIDExpiresIn) * time.Second
}

// DirectUploadExpiry 返回直传URL有效期作为 time.Duration.
func (c *UploadConfig) DirectUploadExpiry() time.Duration {
	return time.Duration(c.DirectUploadExpiresIn) * time.Second
}

// Validate 启动期校验：私钥必填.
func (c *UploadConfig) Validate() error {
	if c.PrivateKey == "" {
		return fmt.Errorf("upload.private_key is required (set ATTACHVAULT_UPLOAD_PRIVATE_KEY or the config file)")
	}

	return nil
}

// setDefaults 设置上传核心配置的默认值.
func (c *UploadConfig) setDefaults(v *viper.Viper) {
	// private_key 故意不设默认值
	v.SetDefault("upload.signed_id_expires_in", DefaultSignedIDExpiresIn)
	v.SetDefault("upload.service", ServiceS3)
	v.SetDefault("upload.direct_upload_expires_in", DefaultDirectUploadExpiresIn)
	v.SetDefault("upload.disk_root", "data/blobs")
	v.SetDefault("upload.analyze_async", true)
	v.SetDefault("upload.sweep.enabled", false)
	v.SetDefault("upload.sweep.cron", DefaultSweepCron)
	v.SetDefault("upload.sweep.min_age_hours", DefaultSweepMinAgeHours)
	v.SetDefault("upload.sweep.batch_size", 100)
}
