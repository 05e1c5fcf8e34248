package cli

// 注册全部博彩商适配器
import (
	_ "BetenlaceSync/internal/adapter/betano"
	_ "BetenlaceSync/internal/adapter/betmaster"
	_ "BetenlaceSync/internal/adapter/betsson"
	_ "BetenlaceSync/internal/adapter/betwinner"
	_ "BetenlaceSync/internal/adapter/codere"
	_ "BetenlaceSync/internal/adapter/dafabet"
	_ "BetenlaceSync/internal/adapter/galera"
	_ "BetenlaceSync/internal/adapter/luckia"
	_ "BetenlaceSync/internal/adapter/rushbet"
	_ "BetenlaceSync/internal/adapter/sport888"
	_ "BetenlaceSync/internal/adapter/yajuego"
)
