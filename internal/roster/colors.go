// colors.go

package roster

import (
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// palette 预设的易区分颜色
var palette = []string{
	"#FF5733", // 橙红
	"#33FF57", // 绿
	"#3357FF", // 蓝
	"#FF33F5", // 粉
	"#F5FF33", // 黄
	"#33FFF5", // 青
	"#8833FF", // 紫
	"#FF8833", // 橙
	"#33FF88", // 薄荷
	"#FF3388", // 洋红
	"#885533", // 棕
	"#5533FF", // 靛
	"#FF5588", // 鲑红
	"#55FF33", // 青柠
	"#3388FF", // 天蓝
}

// hueShiftDegrees 调色板用完后每轮色相旋转的角度
const hueShiftDegrees = 30.0

// ColorFor 按加入顺序分配颜色，超出调色板后旋转基础色的色相
func ColorFor(index int) string {
	if index < 0 {
		index = 0
	}
	base := palette[index%len(palette)]
	round := index / len(palette)
	if round == 0 {
		return base
	}

	c, err := colorful.Hex(base)
	if err != nil {
		return base
	}
	h, s, v := c.Hsv()
	shifted := colorful.Hsv(math.Mod(h+hueShiftDegrees*float64(round), 360), s, v)
	return strings.ToUpper(shifted.Clamped().Hex())
}
