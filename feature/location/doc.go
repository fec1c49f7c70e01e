// Package location deduplicates observation sites by proximity.
//
// # Proximity Search
//
// Every location stores a geohash. To find the nearest site within the
// threshold (10 m by default), the resolver loads candidates whose geohash
// starts with the precision-6 cell of the point or of a corner of the
// threshold box, then ranks them by haversine distance.
//
// # Creation
//
// A new site is reverse geocoded through the Geocoder collaborator
// (Nominatim: rate limited, cached, bounded by a timeout). Any failure falls
// back to "Unknown" country and region. The continent is classified by ray
// casting over a fixed table of polygons.
//
// Concurrent inserts of the same site collide on the unique point key (the
// precision-9 geohash). The loser reuses the winner's row.
package location
