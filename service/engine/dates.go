/*
 * @module service/engine/dates
 * @description 日期与单位换算工具：序数日表示、周桶锚定、按月单位归一化
 * @architecture 分层架构 - 领域核心层
 * @documentReference dev_docs/model_conventions.md
 * @stateFlow 日历日期 -> 序数日积分 -> 日历日期输出
 * @rules 月日数换算使用固定常量 30.437，不做日历感知计算
 * @dependencies time, strings
 * @refs runner.go, aggregator.go
 */

package engine

import (
	"strings"
	"time"
)

// DaysPerMonth 平均每月天数，按月单位与按日速率之间的固定换算常量
const DaysPerMonth = 30.437

// PulseHalfWidthDays 脉冲矩形窗口的半宽(天)
const PulseHalfWidthDays = 15

const secondsPerDay = 86400

// Ordinal 日历日期转序数日(自 Unix 纪元起的天数)
func Ordinal(t time.Time) float64 {
	return float64(t.UTC().Unix() / secondsPerDay)
}

// FromOrdinal 序数日转日历日期(UTC 当日零点)
func FromOrdinal(ordinal float64) time.Time {
	return time.Unix(int64(ordinal)*secondsPerDay, 0).UTC()
}

// DayOfYear 序数日对应的年内日序(1-366)，季节性查找表按此循环
func DayOfYear(ordinal float64) float64 {
	return float64(FromOrdinal(ordinal).YearDay())
}

// IsPerMonthUnit 判断单位是否带"按月"标记
// 数据中同时存在英文(month)和法文(mois)单位标签
func IsPerMonthUnit(unit string) bool {
	u := strings.ToLower(unit)
	return strings.Contains(u, "month") || strings.Contains(u, "mois")
}

// WeekStart 日期所在周的锚定起始日
func WeekStart(t time.Time, anchor time.Weekday) time.Time {
	t = t.UTC().Truncate(24 * time.Hour)
	offset := (int(t.Weekday()) - int(anchor) + 7) % 7
	return t.AddDate(0, 0, -offset)
}
