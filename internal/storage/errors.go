package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

// errorCode 返回 MinIO/S3 错误码的小写形式；不是 ErrorResponse 时返回空串。
func errorCode(err error) string {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return strings.ToLower(strings.TrimSpace(resp.Code))
	}
	return ""
}

func messageContains(err error, needles ...string) bool {
	lower := strings.ToLower(err.Error())
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

// IsNoSuchKey 判断导出对象是否已不存在，删除时据此视为成功。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	switch errorCode(err) {
	case "nosuchkey", "notfound":
		return true
	case "":
		// 网关可能只返回文本
		return messageContains(err, "nosuchkey", "specified key does not exist")
	}
	return false
}

// IsNoSuchBucket 判断导出 Bucket 是否不存在。
func IsNoSuchBucket(err error) bool {
	if err == nil {
		return false
	}
	switch errorCode(err) {
	case "nosuchbucket":
		return true
	case "":
		return messageContains(err, "nosuchbucket", "specified bucket does not exist")
	}
	return false
}
