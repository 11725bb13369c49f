package finance

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/student-ai-platform/internal/financecmd"
	"github.com/student-ai-platform/internal/models"
	"github.com/student-ai-platform/internal/types"
)

const welcomeMessage = "👋 Chào bạn! Tôi là AI quản lý tài chính với những tính năng mới siêu cool! 🚀\n\n" +
	"**💰 Ghi giao dịch:**\n• `25k cafe` - chi tiêu\n• `+7tr lương` - thu nhập\n\n" +
	"**🔍 Truy vấn dí dỏm:**\n• `dò lại chi tiêu` - xem chi tiêu hôm nay\n• `chi tiêu tháng này` - báo cáo tháng\n\n" +
	"**⛓️ Blockchain:**\n• Thêm từ `blockchain` để lưu bất biến!\n\nHãy thử ngay! 😎"

const syntaxHelp = "❌ Cú pháp không đúng! Vui lòng nhập theo định dạng:\n\n" +
	"• `25k cafe` - chi tiêu\n• `+7tr lương` - thu nhập\n• `25k cafe blockchain` - lưu blockchain\n\n" +
	"Hoặc dùng các nút bấm nhanh bên trên! 👆"

const guidanceMessage = `📝 **Hướng dẫn sử dụng AI Quản lý tài chính:**

**💰 Ghi lại giao dịch:**
• ` + "`25k cafe`" + ` - Chi tiêu mua cafe
• ` + "`+7tr lương`" + ` - Thu nhập lương tháng
• ` + "`35k trà sữa`" + ` - Chi phí uống trà sữa
• ` + "`+500k bán đồ`" + ` - Thu từ bán đồ cũ

**🔍 Truy vấn thông tin:**
• ` + "`dò lại chi tiêu`" + ` - Xem chi tiêu hôm nay (dí dỏm!)
• ` + "`chi tiêu tháng này`" + ` - Tổng chi tiêu tháng hiện tại

**⛓️ Lưu trữ blockchain (bất biến):**
• ` + "`25k cafe blockchain`" + ` - Ghi chi tiêu lên blockchain
• ` + "`+7tr lương blockchain`" + ` - Lưu thu nhập bất biến

**📊 Đơn vị hỗ trợ:**
• ` + "`k/nghìn`" + ` = x1,000
• ` + "`tr/triệu/m`" + ` = x1,000,000

**🎯 Mẹo:** Thêm "blockchain" vào câu lệnh để lưu trữ giao dịch bất biến!

Nhấn **Thống kê** để xem báo cáo tài chính chi tiết! 🚀`

var categoryNames = map[string]string{
	"food_drink": "Ăn uống",
	"transport":  "Di chuyển",
	"education":  "Học tập",
	"utilities":  "Tiện ích",
}

func categoryName(id string) string {
	if name, ok := categoryNames[id]; ok {
		return name
	}
	return "Khác"
}

func short(v float64) string {
	return financecmd.FormatShort(money(v))
}

func transactionSaved(cmd *financecmd.Command) string {
	amount := financecmd.FormatShort(cmd.Amount)
	if cmd.Type == types.TransactionIncome {
		return fmt.Sprintf("✅ Đã lưu: thu **%s VNĐ** từ \"%s\"", amount, cmd.Description)
	}
	return fmt.Sprintf("✅ Đã lưu: chi **%s VNĐ** cho \"%s\"", amount, cmd.Description)
}

func blockchainSaved(cmd *financecmd.Command, rec models.BlockchainRecord) string {
	hash := rec.Hash
	if len(hash) > 20 {
		hash = hash[:20]
	}
	amount := financecmd.FormatShort(cmd.Amount)

	heading, icon, closing := "Chi tiêu", "💸", "🎯 Lịch sử chi tiêu được bảo vệ minh bạch!"
	if cmd.Type == types.TransactionIncome {
		heading, icon, closing = "Thu nhập", "💰", "🎯 Giao dịch đã được bảo mật 100%!"
	}
	return fmt.Sprintf("✅ **%s được lưu vào Blockchain!** 🔗⛓️\n\n%s Số tiền: **%s VNĐ**\n📝 Mô tả: \"%s\"\n\n"+
		"🔒 **Bảo vệ Immutable:**\n• Hash: `%s...`\n• Block: #%d\n• Không thể chỉnh sửa hoặc xóa\n\n%s",
		heading, icon, amount, cmd.Description, hash, rec.BlockNumber, closing)
}

func (m *Manager) reviewToday(ctx context.Context) (string, error) {
	data, err := m.api.DailyExpenses(ctx, "")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 **Dò lại chi tiêu hôm nay:**\n\n💸 Tổng chi: **%s VNĐ**\n📊 Số giao dịch: **%d lần**\n\n",
		short(data.TotalAmount), data.Count)
	if len(data.Expenses) == 0 {
		b.WriteString("🎉 Hôm nay bạn chưa chi tiêu gì cả! Ví vẫn còn nguyên vẹn! 👏")
		return b.String(), nil
	}

	b.WriteString("📝 **Chi tiết từng giao dịch:**\n")
	for i, e := range data.Expenses {
		fmt.Fprintf(&b, "%d. %s - %sđ - %s\n", i+1, e.Date.Local().Format("15:04"), short(e.Amount), e.Description)
	}
	b.WriteString("\n🎯 **Nhận xét:** Hôm nay bạn đã chi tiêu khá hợp lý! Tiếp tục duy trì nhé! 👍")
	return b.String(), nil
}

func (m *Manager) today(ctx context.Context) (string, error) {
	data, err := m.api.DailyExpenses(ctx, "")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Chi tiêu hôm nay:**\n\n💰 Tổng chi: **%s VNĐ**\n🔢 Số lần chi: **%d lần**\n\n",
		short(data.TotalAmount), data.Count)
	if len(data.Expenses) == 0 {
		b.WriteString("🎉 Hôm nay bạn chưa chi tiêu gì cả! Ngày tiết kiệm hoàn hảo! 🌟")
		return b.String(), nil
	}

	lo, hi := data.Expenses[0].Amount, data.Expenses[0].Amount
	for _, e := range data.Expenses[1:] {
		if e.Amount < lo {
			lo = e.Amount
		}
		if e.Amount > hi {
			hi = e.Amount
		}
	}
	fmt.Fprintf(&b, "💡 **Khoản chi lớn nhất:** %sđ\n", short(hi))
	fmt.Fprintf(&b, "💡 **Khoản chi nhỏ nhất:** %sđ\n\n", short(lo))
	fmt.Fprintf(&b, "🎯 **Đánh giá:** %s", spendingVerdict(data.TotalAmount))
	return b.String(), nil
}

func spendingVerdict(total float64) string {
	switch {
	case total < 100_000:
		return "Tiết kiệm tốt! 👍"
	case total < 300_000:
		return "Mức chi tiêu hợp lý! 😊"
	default:
		return "Hôm nay chi tiêu hơi nhiều! 😅"
	}
}

func (m *Manager) month(ctx context.Context) (string, error) {
	data, err := m.api.MonthlyExpenses(ctx)
	if err != nil {
		return "", err
	}
	name := data.MonthName
	if name == "" {
		name = "tháng này"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 **Chi tiêu %s:**\n\n💰 Tổng chi: **%s VNĐ**\n\n", name, short(data.TotalExpenses))

	if len(data.Expenses) > 0 {
		top := append([]models.Transaction(nil), data.Expenses...)
		sort.SliceStable(top, func(i, j int) bool { return top[i].Amount > top[j].Amount })
		if len(top) > 5 {
			top = top[:5]
		}
		b.WriteString("📊 **Top giao dịch lớn nhất:**\n")
		for i, e := range top {
			fmt.Fprintf(&b, "%d. %sđ - %s (%s)\n", i+1, short(e.Amount), e.Description, e.Date.Local().Format("2/1/2006"))
		}
	}

	if len(data.Categories) > 0 {
		b.WriteString("\n🏷️ **Top danh mục:**\n")
		for i, c := range data.Categories {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "%d. %sđ - %s\n", i+1, short(c.Total), categoryName(c.ID))
		}
	}

	b.WriteString("\n💡 Tháng sau hãy cố gắng tiết kiệm hơn nhé! 🎯")
	return b.String(), nil
}
