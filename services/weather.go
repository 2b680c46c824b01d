package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

// WeatherService fetches mountain weather for a house's coordinates from
// Open-Meteo and caches responses in Redis.
type WeatherService struct {
	Cache *redis.Client
	TTL   time.Duration
}

func NewWeatherService(cache *redis.Client) *WeatherService {
	return &WeatherService{Cache: cache, TTL: 10 * time.Minute}
}

type Forecast struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Current   struct {
		Temperature float64 `json:"temperature"`
		Windspeed   float64 `json:"windspeed"`
		Weathercode int     `json:"weathercode"`
		Time        string  `json:"time"`
	} `json:"current_weather"`
	Daily struct {
		Time             []string  `json:"time"`
		TemperatureMax   []float64 `json:"temperature_2m_max"`
		TemperatureMin   []float64 `json:"temperature_2m_min"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		SnowfallSum      []float64 `json:"snowfall_sum"`
	} `json:"daily"`
}

// Forecast returns current conditions plus a 7-day outlook. Stale cache
// entries expire after TTL; there is no refresh-ahead.
func (ws *WeatherService) Forecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	key := fmt.Sprintf("weather:%.3f:%.3f", lat, lon)

	if ws.Cache != nil {
		if cached, err := ws.Cache.Get(ctx, key).Result(); err == nil {
			var forecast Forecast
			if err := json.Unmarshal([]byte(cached), &forecast); err == nil {
				return &forecast, nil
			}
		}
	}

	endpoint := fmt.Sprintf(
		"https://api.open-meteo.com/v1/forecast?latitude=%.4f&longitude=%.4f&current_weather=true&daily=temperature_2m_max,temperature_2m_min,precipitation_sum,snowfall_sum&timezone=auto",
		lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather api returned status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	var forecast Forecast
	if err := json.Unmarshal(body, &forecast); err != nil {
		return nil, err
	}

	if ws.Cache != nil {
		ws.Cache.Set(ctx, key, body, ws.TTL)
	}
	return &forecast, nil
}
