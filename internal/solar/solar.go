// Package solar computes the sun's position and a clear-sky irradiance
// estimate for a place and instant.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Position is the sun as seen from one point on the ground.
type Position struct {
	Time           time.Time
	EqOfTimeMin    float64
	DeclinationDeg float64
	AzimuthDeg     float64
	ElevationDeg   float64
	CosZenith      float64
	DistanceAU     float64
	// ClearSky is the Bras clear-sky global irradiance on a horizontal
	// surface in W/m², zero with the sun below the horizon.
	ClearSky float64
}

// AboveHorizon reports whether the refraction-corrected elevation is positive.
func (p Position) AboveHorizon() bool { return p.ElevationDeg > 0 }

const (
	solarConstant = 1367.0
	// DefaultTurbidity is the Bras atmospheric turbidity factor for a clear
	// rural sky.
	DefaultTurbidity = 2.0
)

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// Compute returns the solar position at lat/lon (degrees) and t, using the
// low-precision NOAA series. nfac is the Bras turbidity factor.
func Compute(lat, lon float64, t time.Time, nfac float64) Position {
	t = t.UTC()
	jd := julian.TimeToJD(t)
	T := (jd - 2451545.0) / 36525.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*M))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*M))*0.000289
	omega := 125.04 - 1934.136*T
	lambda := L0 + C - 0.00569 - 0.00478*math.Sin(degToRad(omega))
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	decl := math.Asin(math.Sin(degToRad(eps0)) * math.Sin(degToRad(lambda)))

	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	eqTime := radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4

	utcMin := float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60.0
	ha := (utcMin+4*lon+eqTime)/4 - 180
	latRad := degToRad(lat)
	cosZen := math.Sin(latRad)*math.Sin(decl) + math.Cos(latRad)*math.Cos(decl)*math.Cos(degToRad(ha))
	cosZen = math.Max(-1, math.Min(1, cosZen))
	zen := math.Acos(cosZen)
	elev := 90 - radToDeg(zen) + 0.5667

	// Earth-sun distance from the true anomaly
	mRad := degToRad(M)
	E := mRad + e*math.Sin(mRad)*(1+e*math.Cos(mRad))
	v := 2 * math.Atan(math.Sqrt((1+e)/(1-e))*math.Tan(E/2))
	r := (1 - e*e) / (1 + e*math.Cos(v))

	p := Position{
		Time:           t,
		EqOfTimeMin:    eqTime,
		DeclinationDeg: radToDeg(decl),
		ElevationDeg:   elev,
		CosZenith:      cosZen,
		DistanceAU:     r,
	}
	if elev <= 0 {
		return p
	}

	az := radToDeg(math.Acos(math.Max(-1, math.Min(1,
		(math.Sin(decl)-math.Sin(latRad)*cosZen)/(math.Cos(latRad)*math.Sin(zen))))))
	if ha > 0 {
		az = 360 - az
	}
	p.AzimuthDeg = az

	io := cosZen * solarConstant / (r * r)
	m := 1.0 / (cosZen + 0.15*math.Pow(elev+3.885, -1.253))
	a1 := 0.128 - 0.054*math.Log10(m)
	p.ClearSky = math.Max(0, io*math.Exp(-nfac*a1*m))
	return p
}

// ClearSkyEnergy integrates the clear-sky irradiance over [from, to) in
// J/m², sampling every step.
func ClearSkyEnergy(lat, lon float64, from, to time.Time, step time.Duration) float64 {
	if step <= 0 || !to.After(from) {
		return 0
	}
	var sum float64
	for t := from; t.Before(to); t = t.Add(step) {
		dt := step
		if t.Add(step).After(to) {
			dt = to.Sub(t)
		}
		mid := t.Add(dt / 2)
		sum += Compute(lat, lon, mid, DefaultTurbidity).ClearSky * dt.Seconds()
	}
	return sum
}
