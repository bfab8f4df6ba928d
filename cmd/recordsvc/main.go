package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procurement-platform/internal/recordsvc"
	"procurement-platform/pkg/config"
)

func main() {
	cfg, err := config.LoadRecordConfig()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	dsn := cfg.Records.DSN
	if dsn == "" {
		dsn = "data/records.db"
	}
	store, err := recordsvc.NewSQLiteStore(dsn)
	if err != nil {
		log.Fatalf("初始化存储失败: %v", err)
	}
	defer store.Close()

	addr := ":7777"
	if cfg.API.Port > 0 {
		addr = fmt.Sprintf(":%d", cfg.API.Port)
	}

	h := recordsvc.NewServer(store).Build(addr)

	go func() {
		if err := h.Run(); err != nil {
			log.Printf("记录服务异常退出: %v", err)
		}
	}()
	log.Printf("记录服务启动在 %s（sqlite: %s）", addr, dsn)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.Shutdown(ctx); err != nil {
		log.Printf("关闭失败: %v", err)
	}
	log.Println("记录服务已关闭")
}
