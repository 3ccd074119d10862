package strategy

const comprehensivePrompt = `You are an expert trading chart analyst. Extract ALL price levels from this trading chart.

WHAT TO LOOK FOR:
1. COLORED ZONES/BOXES:
   - RED boxes/zones/rectangles = Stop Loss (SL)
   - GREEN/TEAL/BLUE boxes/zones = Take Profits (TP1, TP2, TP3)
   - YELLOW/ORANGE zones = Entry zones
   - Look for price values written INSIDE these colored areas

2. HORIZONTAL LINES:
   - Solid horizontal lines with price labels
   - Dashed/dotted lines indicating key levels
   - Support and resistance lines

3. TEXT ANNOTATIONS:
   - Price labels on the right axis
   - Text directly on the chart showing prices
   - Labels like "TP1:", "TP2:", "SL:", "Entry:"
   - Numbers inside or near colored zones

4. VISUAL INDICATORS:
   - Arrows pointing to specific price levels
   - Crosshairs or markers at entry points
   - Any highlighted price values

EXTRACTION RULES:
- Read EXACT prices, including all decimal places
- Look for prices both inside colored zones AND on the price axis
- If you see multiple similar prices, they are likely different levels
- Entry price might be marked as "CMP" (Current Market Price) or with an arrow

OUTPUT FORMAT (JSON only):
{
  "stop_loss": [exact price or null],
  "take_profit_1": [exact price or null],
  "take_profit_2": [exact price or null],
  "take_profit_3": [exact price or null],
  "entry_price": [exact price or null],
  "current_price": [current market price if visible],
  "evidence": [short notes on which visual cues you used]
}`

const boxFocusedPrompt = `Focus on extracting prices from COLORED BOXES and RECTANGLES on this trading chart.

STEP 1: Identify all colored rectangular zones
- RED boxes = Stop Loss levels
- GREEN/TEAL boxes = Take Profit levels
- Look for text/numbers INSIDE each box

STEP 2: Read the exact price value in each box
- Prices are usually displayed as white or black text inside the colored area
- May appear as: "197.63" or "TP1: 197.63" or just the number

STEP 3: Check box borders
- Some boxes have the price written on their border/edge
- Look at where boxes meet the right price axis

CRITICAL: Each colored box represents a different price level
- Don't skip any boxes
- Read every number carefully

Return JSON with exact prices from each box:
{
  "stop_loss": [price from red box],
  "take_profit_1": [price from first green box],
  "take_profit_2": [price from second green box],
  "take_profit_3": [price from third green box],
  "entry_price": [entry price if marked],
  "evidence": [which boxes you saw and their colors]
}`

const lineFocusedPrompt = `Extract prices from HORIZONTAL LINES and the PRICE AXIS on this trading chart.

WHAT TO IDENTIFY:
1. Horizontal lines crossing the chart
2. Where each line intersects the right price axis
3. Price values displayed at these intersection points

HOW TO READ:
- Follow each horizontal line to the right edge
- Read the exact price value where it meets the scale
- Lines may be solid, dashed, or dotted
- Different colors indicate different purposes:
  * Red lines = Stop Loss
  * Green lines = Take Profits
  * White/gray = Support/Resistance

IMPORTANT:
- Some lines have labels directly on them
- Check for small text boxes attached to lines
- Entry point may be marked with an arrow

Return exact prices in JSON:
{
  "stop_loss": [lowest/highest price depending on trade direction],
  "take_profit_1": [first target price],
  "take_profit_2": [second target price],
  "take_profit_3": [third target price],
  "entry_price": [entry level if marked],
  "evidence": [which lines you followed]
}`

const annotationFocusedPrompt = `Extract all TEXT ANNOTATIONS and LABELS showing prices on this chart.

SEARCH FOR:
1. Any numbers that look like prices (e.g., 197.63, 1.0823)
2. Labels with "TP1", "TP2", "TP3", "SL", "Entry"
3. Price values in corners or margins
4. Numbers inside colored zones
5. Text overlaid on the chart

COMMON LOCATIONS:
- Inside colored rectangles
- Along the right price axis
- Floating text on the chart
- Near arrows or markers
- In legend or info boxes

READ CAREFULLY:
- Include ALL decimal places
- Don't confuse similar numbers (202 vs 208)
- If multiple prices are close together, they're different levels

Output as JSON with all found prices:
{
  "stop_loss": [price labeled as SL or in red],
  "take_profit_1": [price labeled as TP1],
  "take_profit_2": [price labeled as TP2],
  "take_profit_3": [price labeled as TP3],
  "entry_price": [entry or current price],
  "evidence": [the labels you read]
}`
