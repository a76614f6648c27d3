package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"brainboost/internal/auth"
	"brainboost/internal/config"
	"brainboost/internal/database"
	"brainboost/internal/storage"
)

const passwordLinePrefix = "初始密码: "

const usage = `usage:
  admin create-user --email <email> --name <name> [--subjects a,b] [--learning-style visual]
  admin delete-user --email <email>`

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	cfg, err := config.LoadStores()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "create-user":
		err = createUser(ctx, db, os.Args[2:], os.Stdout)
	case "delete-user":
		err = deleteUser(ctx, db, cfg.MinIO, os.Args[2:], os.Stdout)
	default:
		log.Fatal(usage)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func createUser(ctx context.Context, db *gorm.DB, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	email := fs.String("email", "", "登录邮箱（必填）")
	name := fs.String("name", "", "显示名称（必填）")
	subjects := fs.String("subjects", "", "逗号分隔的学科列表")
	learningStyle := fs.String("learning-style", "visual", "学习风格")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e := strings.ToLower(strings.TrimSpace(*email))
	n := strings.TrimSpace(*name)
	if e == "" || n == "" {
		return errors.New("missing required flags: --email and --name")
	}

	var existing database.User
	switch err := db.WithContext(ctx).Unscoped().Where("email = ?", e).First(&existing).Error; {
	case err == nil:
		return fmt.Errorf("user %q already exists", e)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return fmt.Errorf("query user: %w", err)
	}

	password, err := generateRandomPassword(18)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := database.User{
		Name:          n,
		Email:         e,
		PasswordHash:  hashed,
		Subjects:      datatypes.NewJSONSlice(splitList(*subjects)),
		LearningStyle: strings.TrimSpace(*learningStyle),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(out, "已创建账号：\n")
	fmt.Fprintf(out, "邮箱: %s\n", e)
	fmt.Fprintf(out, "%s%s\n", passwordLinePrefix, password)
	fmt.Fprintf(out, "提示：该密码仅显示一次。\n")
	return nil
}

// deleteUser 物理删除用户及其计划、资料、对话；已签发的令牌随之失效。
func deleteUser(ctx context.Context, db *gorm.DB, minioCfg config.MinIOConfig, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("delete-user", flag.ContinueOnError)
	email := fs.String("email", "", "要删除的账号邮箱（必填）")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return errors.New("missing required flag: --email")
	}

	var user database.User
	if err := db.WithContext(ctx).Unscoped().Where("email = ?", e).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %q not found", e)
		}
		return fmt.Errorf("query user: %w", err)
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 每条语句都从 tx 重新开始，子查询使用独立的 Statement。
		chatIDs := tx.Session(&gorm.Session{NewDB: true}).Model(&database.Chat{}).
			Select("id").Where("user_id = ?", user.ID)
		if err := tx.Unscoped().Where("chat_id IN (?)", chatIDs).Delete(&database.ChatMessage{}).Error; err != nil {
			return fmt.Errorf("delete chat messages: %w", err)
		}
		for _, model := range []any{&database.Chat{}, &database.Resource{}, &database.StudyPlan{}} {
			if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(model).Error; err != nil {
				return fmt.Errorf("delete %T: %w", model, err)
			}
		}
		if err := tx.Unscoped().Delete(&database.User{}, user.ID).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if minioCfg.Enabled() {
		client, err := storage.NewClient(ctx, minioCfg)
		if err != nil {
			return fmt.Errorf("init storage client: %w", err)
		}
		if err := client.DeletePrefix(ctx, storage.ExportPrefix(user.ID)); err != nil {
			return fmt.Errorf("delete exports: %w", err)
		}
	}

	fmt.Fprintf(out, "已删除账号 %s（id=%d）\n", e, user.ID)
	return nil
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func generateRandomPassword(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
