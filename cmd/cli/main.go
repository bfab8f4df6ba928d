package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

func main() {
	role := flag.String("role", "requester", "對話角色：requester（請購）| officer（採購審核）")
	flag.Parse()

	if *role != "requester" && *role != "officer" {
		fmt.Fprintf(os.Stderr, "未知角色 %q，支持 requester | officer\n", *role)
		os.Exit(1)
	}

	sessionID := fmt.Sprintf("cli-%s-%s", *role, uuid.NewString()[:8])
	if *role == "officer" {
		fmt.Println("🏢 採購審核助手（輸入 exit 離開，reset 重置會話，state 查看會話狀態）")
	} else {
		fmt.Println("🛒 採購請購助手（輸入 exit 離開，reset 重置會話，state 查看會話狀態）")
	}
	fmt.Printf("會話: %s\n\n", sessionID)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch input {
		case "exit", "quit":
			return

		case "reset":
			if err := deleteSession(sessionID); err != nil {
				fmt.Fprintf(os.Stderr, "重置失敗: %v\n", err)
				continue
			}
			sessionID = fmt.Sprintf("cli-%s-%s", *role, uuid.NewString()[:8])
			fmt.Printf("已重置，新的會話: %s\n", sessionID)

		case "state":
			snapshot, err := getSession(sessionID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "查詢失敗: %v\n", err)
				continue
			}
			fmt.Println(prettyJSON(snapshot))

		default:
			resp, err := sendChat(*role, sessionID, input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "發送失敗: %v\n", err)
				continue
			}
			fmt.Printf("\n%s\n\n[%s]\n", resp.Response, resp.ConversationState)
		}
	}
}
