package purchase

import "strings"

// 确认类分支用本地关键字族判定，不走生成式服务，保证可测的确定性。
// 英文同义词并列，输入先转小写再匹配。

var affirmativeKeywords = []string{"同意", "確認", "好", "可以", "沒問題", "ok", "yes", "confirm", "agree"}

var negativeKeywords = []string{"不同意", "不要", "不行", "調整", "修改", "改", "no", "adjust"}

var submitKeywords = []string{"確認提交", "提交", "確認", "送出", "submit"}

var modifyKeywords = []string{"修改", "調整", "更改", "modify"}

var cancelKeywords = []string{"取消", "不要", "放棄", "cancel"}

// matchAny 任一关键字出现即命中
func matchAny(input string, keywords []string) bool {
	lower := strings.ToLower(strings.TrimSpace(input))
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
